package repository

import (
	"context"
	"fmt"

	"CandleScope/internal/domain/models"
	domrepo "CandleScope/internal/domain/repository"
	"CandleScope/pkg/queue"
)

const analysisMessageType = "analysis"

// Enqueuer is the subset of the Redis queue publisher the journal needs.
type Enqueuer interface {
	Enqueue(ctx context.Context, msgType string, payload interface{}) error
	PublishMessage(ctx context.Context, msgType string, payload interface{}) error
	Close() error
}

// RedisJournal pushes analysis events onto a Redis list for an external
// consumer to drain.
type RedisJournal struct {
	q Enqueuer
}

func NewRedisJournal(q Enqueuer) *RedisJournal {
	return &RedisJournal{q: q}
}

func (j *RedisJournal) Record(ctx context.Context, ev *models.AnalysisEvent) error {
	if err := j.q.Enqueue(ctx, analysisMessageType, ev); err != nil {
		return fmt.Errorf("enqueue analysis event: %w", err)
	}
	return nil
}

// PublishMessage lets the log collector share the queue.
func (j *RedisJournal) PublishMessage(ctx context.Context, msgType string, payload interface{}) error {
	return j.q.PublishMessage(ctx, msgType, payload)
}

func (j *RedisJournal) Close() error {
	return j.q.Close()
}

var (
	_ domrepo.Journal = (*RedisJournal)(nil)
	_ Enqueuer        = (*queue.RedisPublisher)(nil)
)

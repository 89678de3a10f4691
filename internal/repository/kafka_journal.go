package repository

import (
	"context"
	"fmt"

	"CandleScope/internal/domain/models"
	domrepo "CandleScope/internal/domain/repository"
	pkgkafka "CandleScope/pkg/kafka"
)

// EventPublisher is the subset of the Kafka producer the journal needs.
type EventPublisher interface {
	Publish(ctx context.Context, topic string, key []byte, value interface{}) error
	Close() error
}

// KafkaJournal writes analysis events to a topic keyed by session, so every
// session's events stay ordered within one partition.
type KafkaJournal struct {
	producer EventPublisher
	topic    string
}

func NewKafkaJournal(producer EventPublisher, topic string) *KafkaJournal {
	return &KafkaJournal{producer: producer, topic: topic}
}

func (j *KafkaJournal) Record(ctx context.Context, ev *models.AnalysisEvent) error {
	if err := j.producer.Publish(ctx, j.topic, []byte(ev.SessionID), ev); err != nil {
		return fmt.Errorf("publish analysis event: %w", err)
	}
	return nil
}

// PublishMessage lets the log collector ship aggregated errors through the
// same producer.
func (j *KafkaJournal) PublishMessage(ctx context.Context, topic string, payload interface{}) error {
	return j.producer.Publish(ctx, topic, nil, payload)
}

func (j *KafkaJournal) Close() error {
	return j.producer.Close()
}

var (
	_ domrepo.Journal = (*KafkaJournal)(nil)
	_ EventPublisher  = (*pkgkafka.Producer)(nil)
)

// NopJournal drops every event.
type NopJournal struct{}

func (NopJournal) Record(context.Context, *models.AnalysisEvent) error { return nil }
func (NopJournal) Close() error { return nil }

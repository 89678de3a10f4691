package repository

import (
	"context"
	"errors"
	"testing"

	"CandleScope/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type enqueued struct {
	msgType string
	payload interface{}
}

type fakeQueue struct {
	msgs   []enqueued
	err    error
	closed bool
}

func (q *fakeQueue) Enqueue(_ context.Context, msgType string, payload interface{}) error {
	if q.err != nil {
		return q.err
	}
	q.msgs = append(q.msgs, enqueued{msgType, payload})
	return nil
}

func (q *fakeQueue) PublishMessage(ctx context.Context, msgType string, payload interface{}) error {
	return q.Enqueue(ctx, msgType, payload)
}

func (q *fakeQueue) Close() error {
	q.closed = true
	return nil
}

func TestRedisJournalRecord(t *testing.T) {
	q := &fakeQueue{}
	j := NewRedisJournal(q)

	ev := &models.AnalysisEvent{SessionID: "s1", Method: "iqr", Outcome: "anomalies", Anomalies: 4}
	require.NoError(t, j.Record(context.Background(), ev))
	require.NoError(t, j.PublishMessage(context.Background(), "logs", []string{"boom"}))

	require.Len(t, q.msgs, 2)
	assert.Equal(t, "analysis", q.msgs[0].msgType)
	assert.Same(t, ev, q.msgs[0].payload)
	assert.Equal(t, "logs", q.msgs[1].msgType)

	require.NoError(t, j.Close())
	assert.True(t, q.closed)
}

func TestRedisJournalRecordError(t *testing.T) {
	q := &fakeQueue{err: errors.New("connection refused")}
	err := NewRedisJournal(q).Record(context.Background(), &models.AnalysisEvent{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

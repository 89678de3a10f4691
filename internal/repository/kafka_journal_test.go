package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"CandleScope/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type published struct {
	topic string
	key   []byte
	value interface{}
}

type fakeProducer struct {
	msgs   []published
	err    error
	closed bool
}

func (p *fakeProducer) Publish(_ context.Context, topic string, key []byte, value interface{}) error {
	if p.err != nil {
		return p.err
	}
	p.msgs = append(p.msgs, published{topic, key, value})
	return nil
}

func (p *fakeProducer) Close() error {
	p.closed = true
	return nil
}

func TestKafkaJournalRecord(t *testing.T) {
	p := &fakeProducer{}
	j := NewKafkaJournal(p, "candlescope.analysis")
	ev := &models.AnalysisEvent{
		SessionID: "abc",
		Method:    "iqr",
		Outcome:   "anomalies",
		Anomalies: 2,
		At:        time.Now(),
	}

	require.NoError(t, j.Record(context.Background(), ev))
	require.Len(t, p.msgs, 1)
	assert.Equal(t, "candlescope.analysis", p.msgs[0].topic)
	assert.Equal(t, []byte("abc"), p.msgs[0].key)
	assert.Same(t, ev, p.msgs[0].value)

	require.NoError(t, j.PublishMessage(context.Background(), "candlescope.logs", map[string]int{"n": 1}))
	assert.Equal(t, "candlescope.logs", p.msgs[1].topic)
	assert.Nil(t, p.msgs[1].key)

	require.NoError(t, j.Close())
	assert.True(t, p.closed)
}

func TestKafkaJournalError(t *testing.T) {
	p := &fakeProducer{err: errors.New("no brokers")}
	j := NewKafkaJournal(p, "t")
	err := j.Record(context.Background(), &models.AnalysisEvent{SessionID: "x"})
	assert.ErrorContains(t, err, "no brokers")
}

func TestNopJournal(t *testing.T) {
	var j NopJournal
	assert.NoError(t, j.Record(context.Background(), &models.AnalysisEvent{}))
	assert.NoError(t, j.Close())
}

func TestJournalSchema(t *testing.T) {
	s := journalSchema("analysis_journal")
	assert.Contains(t, s, "CREATE TABLE IF NOT EXISTS analysis_journal")
	assert.Contains(t, s, "ENGINE = MergeTree")
}

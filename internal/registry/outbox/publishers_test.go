package outbox

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	"policyregistry/internal/registry/models"
	"policyregistry/pkg/domain"
)

type fakeProducer struct {
	records []*kgo.Record
	err     error
}

func (f *fakeProducer) ProduceSync(_ context.Context, rs ...*kgo.Record) kgo.ProduceResults {
	var out kgo.ProduceResults
	for _, r := range rs {
		f.records = append(f.records, r)
		out = append(out, kgo.ProduceResult{Record: r, Err: f.err})
	}
	return out
}

func sampleEntry(t *testing.T) models.OutboxEntry {
	t.Helper()
	ev, err := models.NewEvent(models.WithdrawalPayload{
		Caller: domain.MustParseAddress("0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"),
		Amount: 15,
	}, time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	return models.OutboxEntry{Sequence: 42, Event: ev}
}

func TestKafkaPublisher(t *testing.T) {
	t.Run("writes one keyed record", func(t *testing.T) {
		producer := &fakeProducer{}
		entry := sampleEntry(t)

		require.NoError(t, NewKafkaPublisher(producer, "registry.events").Publish(context.Background(), entry))
		require.Len(t, producer.records, 1)

		rec := producer.records[0]
		assert.Equal(t, "registry.events", rec.Topic)
		assert.Equal(t, []byte(models.EventWithdrawal), rec.Key)
		assert.Contains(t, rec.Headers, kgo.RecordHeader{Key: "outbox_sequence", Value: []byte("42")})

		var decoded models.Event
		require.NoError(t, json.Unmarshal(rec.Value, &decoded))
		assert.Equal(t, entry.Event.ID, decoded.ID)
	})

	t.Run("propagates produce errors", func(t *testing.T) {
		producer := &fakeProducer{err: errors.New("leader not available")}
		err := NewKafkaPublisher(producer, "registry.events").Publish(context.Background(), sampleEntry(t))
		assert.ErrorContains(t, err, "leader not available")
	})
}

func TestLogPublisher(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	require.NoError(t, NewLogPublisher(logger).Publish(context.Background(), sampleEntry(t)))

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "Withdrawal", line["msg"])
	assert.EqualValues(t, 42, line["sequence"])
}

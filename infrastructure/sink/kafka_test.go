package sink

import (
	"context"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/isectech/ctf-datagen/config"
	"github.com/isectech/ctf-datagen/domain/entity"
	"github.com/isectech/ctf-datagen/shared/common"
)

type fakeWriter struct {
	batches [][]kafka.Message
	err     error
	closed  bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	batch := make([]kafka.Message, len(msgs))
	copy(batch, msgs)
	f.batches = append(f.batches, batch)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func kafkaConfig() config.KafkaConfig {
	return config.KafkaConfig{
		TopicPrefix: "kql",
		ClientID:    "ctf-datagen",
		BatchSize:   300,
	}
}

func TestKafkaPublish(t *testing.T) {
	w := &fakeWriter{}
	k := newKafkaWithWriter(kafkaConfig(), w, testLogger(t))

	ds := composeDataset(t, entity.ExerciseHelloKQL)
	require.NoError(t, k.Publish(context.Background(), ds))
	require.NoError(t, k.Close())
	assert.True(t, w.closed)

	require.Len(t, w.batches, 4)
	assert.Len(t, w.batches[3], 100)

	first := w.batches[0][0]
	assert.Equal(t, "kql.securityevent", first.Topic)
	assert.Equal(t, "hello-kql:SecurityEvent:0", string(first.Key))
	assert.Equal(t, "hello-kql:SecurityEvent:999", string(w.batches[3][99].Key))
	assert.Equal(t, []kafka.Header{
		{Key: "exercise", Value: []byte("hello-kql")},
		{Key: "table", Value: []byte("SecurityEvent")},
		{Key: "producer_id", Value: []byte("ctf-datagen")},
	}, first.Headers)

	var got entity.Record
	require.NoError(t, got.UnmarshalJSON(first.Value))
	assert.True(t, got.Equal(ds.Table(entity.TableSecurityEvent).Records[0]))
}

func TestKafkaRateLimitHonoursContext(t *testing.T) {
	cfg := kafkaConfig()
	cfg.RateLimit = 1
	k := newKafkaWithWriter(cfg, &fakeWriter{}, testLogger(t))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := k.Publish(ctx, composeDataset(t, entity.ExerciseHelloKQL))
	assert.True(t, common.HasErrorCode(err, common.ErrCodeExternalService))
}

func TestKafkaWriteFailure(t *testing.T) {
	k := newKafkaWithWriter(kafkaConfig(), &fakeWriter{err: errors.New("leader not available")}, testLogger(t))

	err := k.Publish(context.Background(), composeDataset(t, entity.ExerciseCounting101))
	require.Error(t, err)
	assert.True(t, common.HasErrorCode(err, common.ErrCodeExternalService))
	assert.Contains(t, err.Error(), "leader not available")
}

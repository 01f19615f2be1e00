package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/isectech/ctf-datagen/config"
	"github.com/isectech/ctf-datagen/domain/entity"
	"github.com/isectech/ctf-datagen/domain/service"
	"github.com/isectech/ctf-datagen/pkg/logging"
	"github.com/isectech/ctf-datagen/shared/common"
)

// messageWriter is the part of *kafka.Writer the sink uses
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Kafka publishes one message per record to a topic per table
type Kafka struct {
	config  config.KafkaConfig
	writer  messageWriter
	limiter *rate.Limiter
	logger  *logging.Logger
}

var _ service.DatasetSink = (*Kafka)(nil)

// NewKafka creates the sink. Topics are chosen per message so one writer
// serves every table.
func NewKafka(cfg config.KafkaConfig, logger *logging.Logger) *Kafka {
	logger = logger.WithComponent("kafka-sink")
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Balancer:     &kafka.Hash{},
		BatchSize:    cfg.BatchSize,
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: cfg.WriteTimeout,
		RequiredAcks: kafka.RequireAll,
		Compression:  kafka.Lz4,
		Transport:    &kafka.Transport{ClientID: cfg.ClientID},
		ErrorLogger: kafka.LoggerFunc(func(msg string, args ...interface{}) {
			logger.Error(fmt.Sprintf(msg, args...))
		}),
	}

	logger.Info("Kafka sink initialized", zap.Strings("brokers", cfg.Brokers))
	return newKafkaWithWriter(cfg, writer, logger)
}

func newKafkaWithWriter(cfg config.KafkaConfig, writer messageWriter, logger *logging.Logger) *Kafka {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 500
	}
	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}
	return &Kafka{
		config:  cfg,
		writer:  writer,
		limiter: rate.NewLimiter(limit, cfg.BatchSize),
		logger:  logger,
	}
}

// Name implements service.DatasetSink
func (k *Kafka) Name() string { return NameKafka }

// Topic returns the topic records of table are written to
func (k *Kafka) Topic(table string) string {
	return fmt.Sprintf("%s.%s", k.config.TopicPrefix, strings.ToLower(table))
}

// Publish writes every record, batch by batch, within the configured rate
func (k *Kafka) Publish(ctx context.Context, ds *entity.Dataset) error {
	for _, t := range ds.Tables() {
		topic := k.Topic(t.Name)
		batch := make([]kafka.Message, 0, k.config.BatchSize)

		flush := func() error {
			if len(batch) == 0 {
				return nil
			}
			if err := k.limiter.WaitN(ctx, len(batch)); err != nil {
				return err
			}
			if err := k.writer.WriteMessages(ctx, batch...); err != nil {
				return err
			}
			batch = batch[:0]
			return nil
		}

		for i, r := range t.Records {
			msg, err := k.message(ds.Exercise, topic, t.Name, i, r)
			if err != nil {
				return common.WrapError(err, common.ErrCodeInternal, "failed to marshal record")
			}
			batch = append(batch, msg)
			if len(batch) == k.config.BatchSize {
				if err := flush(); err != nil {
					return common.ErrExternalService(NameKafka, err).WithContext("topic", topic)
				}
			}
		}
		if err := flush(); err != nil {
			return common.ErrExternalService(NameKafka, err).WithContext("topic", topic)
		}

		k.logger.Debug("Table published",
			zap.String("exercise", string(ds.Exercise)),
			zap.String("topic", topic),
			zap.Int("records", t.Len()))
	}
	return nil
}

func (k *Kafka) message(exercise entity.ExerciseID, topic, table string, seq int, r *entity.Record) (kafka.Message, error) {
	value, err := json.Marshal(r)
	if err != nil {
		return kafka.Message{}, err
	}
	return kafka.Message{
		Topic: topic,
		Key:   []byte(fmt.Sprintf("%s:%s:%d", exercise, table, seq)),
		Value: value,
		Headers: []kafka.Header{
			{Key: "exercise", Value: []byte(exercise)},
			{Key: "table", Value: []byte(table)},
			{Key: "producer_id", Value: []byte(k.config.ClientID)},
		},
	}, nil
}

// Close flushes and closes the writer
func (k *Kafka) Close() error {
	if err := k.writer.Close(); err != nil {
		return common.ErrExternalService(NameKafka, err)
	}
	return nil
}

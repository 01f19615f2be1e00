package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/isectech/ctf-datagen/config"
	"github.com/isectech/ctf-datagen/domain/entity"
	"github.com/isectech/ctf-datagen/domain/service"
	"github.com/isectech/ctf-datagen/pkg/logging"
	"github.com/isectech/ctf-datagen/shared/common"
)

const breakerFailureThreshold = 3

// Elasticsearch bulk-loads every table into its own index
type Elasticsearch struct {
	config         config.ElasticsearchConfig
	client         *elasticsearch.Client
	circuitBreaker *gobreaker.CircuitBreaker
	logger         *logging.Logger
}

var _ service.DatasetSink = (*Elasticsearch)(nil)

// bulkResponse is the subset of the _bulk reply needed to surface item failures
type bulkResponse struct {
	Errors bool `json:"errors"`
	Items  []map[string]struct {
		Index  string `json:"_index"`
		Status int    `json:"status"`
		Error  *struct {
			Type   string `json:"type"`
			Reason string `json:"reason"`
		} `json:"error,omitempty"`
	} `json:"items"`
}

// NewElasticsearch creates the sink and pings the cluster
func NewElasticsearch(ctx context.Context, cfg config.ElasticsearchConfig, logger *logging.Logger) (*Elasticsearch, error) {
	logger = logger.WithComponent("elasticsearch-sink")

	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses:  cfg.Addresses,
		Username:   cfg.Username,
		Password:   cfg.Password,
		MaxRetries: cfg.MaxRetries,
	})
	if err != nil {
		return nil, common.ErrExternalService(NameElasticsearch, err)
	}

	s := &Elasticsearch{
		config: cfg,
		client: client,
		logger: logger,
	}
	s.circuitBreaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "elasticsearch-sink",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breakerFailureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Info("Circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := s.Ping(pingCtx); err != nil {
		return nil, common.ErrExternalService(NameElasticsearch, err)
	}

	logger.Info("Elasticsearch sink initialized", zap.Strings("addresses", cfg.Addresses))
	return s, nil
}

// Name implements service.DatasetSink
func (s *Elasticsearch) Name() string { return NameElasticsearch }

// Ping tests the connection to Elasticsearch
func (s *Elasticsearch) Ping(ctx context.Context) error {
	_, err := s.circuitBreaker.Execute(func() (interface{}, error) {
		res, err := s.client.Ping(s.client.Ping.WithContext(ctx))
		if err != nil {
			return nil, err
		}
		defer res.Body.Close()

		if res.IsError() {
			return nil, fmt.Errorf("ping failed with status: %s", res.Status())
		}
		return nil, nil
	})
	return err
}

// IndexName returns the index a table of an exercise is loaded into
func (s *Elasticsearch) IndexName(exercise entity.ExerciseID, table string) string {
	return strings.ToLower(fmt.Sprintf("%s-%s-%s", s.config.IndexPrefix, exercise, table))
}

// Publish bulk-indexes every table in batches of config.BatchSize records
func (s *Elasticsearch) Publish(ctx context.Context, ds *entity.Dataset) error {
	batchSize := s.config.BatchSize
	if batchSize <= 0 {
		batchSize = 1000
	}

	for _, t := range ds.Tables() {
		index := s.IndexName(ds.Exercise, t.Name)
		for start := 0; start < t.Len(); start += batchSize {
			end := start + batchSize
			if end > t.Len() {
				end = t.Len()
			}
			if err := s.bulkIndex(ctx, index, t.Records[start:end]); err != nil {
				return common.ErrExternalService(NameElasticsearch, err).
					WithContext("index", index).
					WithContext("offset", start)
			}
		}

		s.logger.Debug("Table indexed",
			zap.String("exercise", string(ds.Exercise)),
			zap.String("index", index),
			zap.Int("records", t.Len()))
	}
	return nil
}

func (s *Elasticsearch) bulkIndex(ctx context.Context, index string, records []*entity.Record) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	action := map[string]map[string]string{"index": {"_index": index}}
	for _, r := range records {
		if err := enc.Encode(action); err != nil {
			return fmt.Errorf("failed to encode bulk action: %w", err)
		}
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("failed to encode bulk document: %w", err)
		}
	}

	_, err := s.circuitBreaker.Execute(func() (interface{}, error) {
		res, err := s.client.Bulk(
			bytes.NewReader(buf.Bytes()),
			s.client.Bulk.WithContext(ctx),
			s.client.Bulk.WithRefresh("true"),
		)
		if err != nil {
			return nil, fmt.Errorf("bulk request failed: %w", err)
		}
		defer res.Body.Close()

		body, err := io.ReadAll(res.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to read bulk response: %w", err)
		}
		if res.IsError() {
			return nil, fmt.Errorf("bulk operation failed with status %s: %s", res.Status(), string(body))
		}
		return nil, bulkItemError(body)
	})
	return err
}

// bulkItemError reports the first failed item of a bulk reply
func bulkItemError(body []byte) error {
	var reply bulkResponse
	if err := json.Unmarshal(body, &reply); err != nil {
		return fmt.Errorf("failed to decode bulk response: %w", err)
	}
	if !reply.Errors {
		return nil
	}

	failed := 0
	var first string
	for _, item := range reply.Items {
		for _, result := range item {
			if result.Error == nil {
				continue
			}
			if failed == 0 {
				first = fmt.Sprintf("%s: %s", result.Error.Type, result.Error.Reason)
			}
			failed++
		}
	}
	return fmt.Errorf("%d bulk items failed, first: %s", failed, first)
}

// Close implements service.DatasetSink
func (s *Elasticsearch) Close() error {
	s.logger.Info("Elasticsearch sink closed")
	return nil
}

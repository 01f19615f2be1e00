// Package sink publishes generated datasets to downstream systems so they can
// be queried with the same tooling the exercises are played on.
package sink

import (
	"context"
	"strings"
	"unicode"

	"github.com/isectech/ctf-datagen/config"
	"github.com/isectech/ctf-datagen/domain/service"
	"github.com/isectech/ctf-datagen/pkg/logging"
)

// Names reported by Sink.Name and used as the metrics label.
const (
	NameElasticsearch = "elasticsearch"
	NameKafka         = "kafka"
	NamePostgres      = "postgres"
)

// NewEnabled builds every sink switched on in cfg. Sinks created before a
// failure are closed again.
func NewEnabled(ctx context.Context, cfg config.SinksConfig, logger *logging.Logger) ([]service.DatasetSink, error) {
	var sinks []service.DatasetSink
	fail := func(err error) ([]service.DatasetSink, error) {
		CloseAll(sinks, logger)
		return nil, err
	}

	if cfg.Elasticsearch.Enabled {
		s, err := NewElasticsearch(ctx, cfg.Elasticsearch, logger)
		if err != nil {
			return fail(err)
		}
		sinks = append(sinks, s)
	}
	if cfg.Kafka.Enabled {
		sinks = append(sinks, NewKafka(cfg.Kafka, logger))
	}
	if cfg.Postgres.Enabled {
		s, err := NewPostgres(ctx, cfg.Postgres, logger)
		if err != nil {
			return fail(err)
		}
		sinks = append(sinks, s)
	}
	return sinks, nil
}

// CloseAll closes sinks, logging failures
func CloseAll(sinks []service.DatasetSink, logger *logging.Logger) {
	for _, s := range sinks {
		if err := s.Close(); err != nil {
			logger.Warn("Failed to close sink", logging.String("sink", s.Name()), logging.Error(err))
		}
	}
}

// snakeCase turns "AzureNetworkAnalytics_CL" into "azure_network_analytics_cl"
// and "hello-kql" into "hello_kql".
func snakeCase(s string) string {
	var b strings.Builder
	runes := []rune(s)
	for i, r := range runes {
		switch {
		case r == '-' || r == ' ' || r == '.':
			b.WriteByte('_')
		case unicode.IsUpper(r):
			if i > 0 && runes[i-1] != '_' && runes[i-1] != '-' &&
				(unicode.IsLower(runes[i-1]) || (i+1 < len(runes) && unicode.IsLower(runes[i+1]))) {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

package sink

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/isectech/ctf-datagen/config"
	"github.com/isectech/ctf-datagen/domain/entity"
	"github.com/isectech/ctf-datagen/domain/service"
	"github.com/isectech/ctf-datagen/pkg/logging"
	"github.com/isectech/ctf-datagen/shared/common"
)

// Each record takes two placeholders; stay well below the 65535 bind limit.
const postgresInsertBatch = 1000

// execer is satisfied by *sqlx.Tx
type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// Postgres loads every table into <schema>.<exercise>_<table> as JSONB rows
type Postgres struct {
	config config.PostgresConfig
	db     *sqlx.DB
	logger *logging.Logger
}

var _ service.DatasetSink = (*Postgres)(nil)

// NewPostgres connects and pings the database
func NewPostgres(ctx context.Context, cfg config.PostgresConfig, logger *logging.Logger) (*Postgres, error) {
	logger = logger.WithComponent("postgres-sink")

	db, err := sqlx.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, common.ErrExternalService(NamePostgres, err)
	}
	db.SetMaxOpenConns(4)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, common.ErrExternalService(NamePostgres, err)
	}

	logger.Info("PostgreSQL sink initialized",
		zap.String("host", cfg.Host),
		zap.String("database", cfg.Database),
		zap.String("schema", cfg.Schema))
	return &Postgres{config: cfg, db: db, logger: logger}, nil
}

// Name implements service.DatasetSink
func (p *Postgres) Name() string { return NamePostgres }

// TableName returns the quoted, schema-qualified table for one dataset table
func (p *Postgres) TableName(exercise entity.ExerciseID, table string) string {
	return qualifiedTable(p.config.Schema, exercise, table)
}

// Publish recreates and fills every table inside a single transaction
func (p *Postgres) Publish(ctx context.Context, ds *entity.Dataset) error {
	err := p.transaction(ctx, func(tx *sqlx.Tx) error {
		for _, t := range ds.Tables() {
			name := p.TableName(ds.Exercise, t.Name)
			if err := loadTable(ctx, tx, name, t.Records); err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			p.logger.Debug("Table loaded",
				zap.String("exercise", string(ds.Exercise)),
				zap.String("table", name),
				zap.Int("records", t.Len()))
		}
		return nil
	})
	if err != nil {
		return common.ErrExternalService(NamePostgres, err)
	}
	return nil
}

func (p *Postgres) transaction(ctx context.Context, fn func(*sqlx.Tx) error) error {
	tx, err := p.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rollbackErr := tx.Rollback(); rollbackErr != nil {
			p.logger.Error("Failed to rollback transaction", zap.Error(rollbackErr))
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Close implements service.DatasetSink
func (p *Postgres) Close() error {
	if err := p.db.Close(); err != nil {
		return common.ErrExternalService(NamePostgres, err)
	}
	return nil
}

func qualifiedTable(schema string, exercise entity.ExerciseID, table string) string {
	name := pq.QuoteIdentifier(snakeCase(string(exercise)) + "_" + snakeCase(table))
	if schema == "" {
		return name
	}
	return pq.QuoteIdentifier(schema) + "." + name
}

func loadTable(ctx context.Context, tx execer, name string, records []*entity.Record) error {
	statements := []string{
		fmt.Sprintf("DROP TABLE IF EXISTS %s", name),
		fmt.Sprintf("CREATE TABLE %s (seq integer PRIMARY KEY, record jsonb NOT NULL)", name),
	}
	for _, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}

	for start := 0; start < len(records); start += postgresInsertBatch {
		end := start + postgresInsertBatch
		if end > len(records) {
			end = len(records)
		}
		query, args, err := insertStatement(name, start, records[start:end])
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return err
		}
	}
	return nil
}

// insertStatement builds one multi-row INSERT; seq continues from offset
func insertStatement(name string, offset int, records []*entity.Record) (string, []interface{}, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "INSERT INTO %s (seq, record) VALUES ", name)

	args := make([]interface{}, 0, 2*len(records))
	for i, r := range records {
		doc, err := json.Marshal(r)
		if err != nil {
			return "", nil, err
		}
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "($%d, $%d)", 2*i+1, 2*i+2)
		args = append(args, offset+i, string(doc))
	}
	return b.String(), args, nil
}

// Package postgres provides Postgres-backed persistence implementations.
package postgres

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JakeFAU/eurlex-harvester/internal/eurlex"
)

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// ActStoreConfig controls the Postgres connection pool used for act rows.
type ActStoreConfig struct {
	DSN             string
	Table           string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type querier interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Query(context.Context, string, ...any) (pgx.Rows, error)
	QueryRow(context.Context, string, ...any) pgx.Row
	Close()
}

// ActStore persists harvested legal acts, keyed by CELEX number.
type ActStore struct {
	pool  querier
	table string
}

// NewActStore creates a Postgres-backed ActStore and ensures the acts table
// exists.
func NewActStore(ctx context.Context, cfg ActStoreConfig) (*ActStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("store.postgres.dsn is required")
	}
	table := cfg.Table
	if table == "" {
		table = "legal_acts"
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	s := &ActStore{pool: pool, table: table}
	if err := s.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// NewActStoreWithPool constructs a store from an existing pool (primarily for
// testing). No schema bootstrap is performed.
func NewActStoreWithPool(pool querier, table string) (*ActStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if table == "" {
		table = "legal_acts"
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	return &ActStore{pool: pool, table: table}, nil
}

func (s *ActStore) ensureSchema(ctx context.Context) error {
	ddl := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
	id BIGSERIAL PRIMARY KEY,
	celex_number TEXT UNIQUE NOT NULL,
	title TEXT NOT NULL,
	document_type TEXT,
	subject_matter TEXT,
	directory_code TEXT,
	date_document TEXT,
	date_force TEXT,
	date_end_validity TEXT,
	content TEXT,
	content_hash TEXT,
	summary TEXT,
	keywords TEXT,
	legal_basis TEXT,
	procedure TEXT,
	addressee TEXT,
	url TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`, s.table)
	if _, err := s.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("create acts table: %w", err)
	}
	return nil
}

// Close releases the underlying pool resources.
func (s *ActStore) Close() error {
	if s == nil || s.pool == nil {
		return nil
	}
	s.pool.Close()
	return nil
}

// UpsertAct inserts the act or, when its CELEX number is already present,
// replaces the stored row. The row identifier is returned either way.
func (s *ActStore) UpsertAct(ctx context.Context, act eurlex.LegalAct) (string, error) {
	if s == nil || s.pool == nil {
		return "", fmt.Errorf("act store is not configured")
	}
	if act.Celex == "" {
		return "", fmt.Errorf("celex number is required")
	}
	query := fmt.Sprintf(`
INSERT INTO %s (
	celex_number,
	title,
	document_type,
	subject_matter,
	directory_code,
	date_document,
	date_force,
	date_end_validity,
	content,
	content_hash,
	summary,
	keywords,
	legal_basis,
	procedure,
	addressee,
	url,
	updated_at
) VALUES (
	$1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,now()
)
ON CONFLICT (celex_number) DO UPDATE SET
	title = EXCLUDED.title,
	document_type = EXCLUDED.document_type,
	subject_matter = EXCLUDED.subject_matter,
	directory_code = EXCLUDED.directory_code,
	date_document = EXCLUDED.date_document,
	date_force = EXCLUDED.date_force,
	date_end_validity = EXCLUDED.date_end_validity,
	content = EXCLUDED.content,
	content_hash = EXCLUDED.content_hash,
	summary = EXCLUDED.summary,
	keywords = EXCLUDED.keywords,
	legal_basis = EXCLUDED.legal_basis,
	procedure = EXCLUDED.procedure,
	addressee = EXCLUDED.addressee,
	url = EXCLUDED.url,
	updated_at = now()
RETURNING id`, s.table)

	args := []any{
		act.Celex,
		act.Title,
		act.DocumentType,
		act.SubjectMatter,
		act.DirectoryCode,
		act.DateDocument,
		act.DateForce,
		act.DateEndValidity,
		act.Content,
		act.ContentHash,
		act.Summary,
		act.Keywords,
		act.LegalBasis,
		act.Procedure,
		act.Addressee,
		act.URL,
	}
	var id int64
	if err := s.pool.QueryRow(ctx, query, args...).Scan(&id); err != nil {
		return "", fmt.Errorf("upsert act %s: %w", act.Celex, err)
	}
	return strconv.FormatInt(id, 10), nil
}

// CountActs returns the number of stored acts.
func (s *ActStore) CountActs(ctx context.Context) (int, error) {
	if s == nil || s.pool == nil {
		return 0, fmt.Errorf("act store is not configured")
	}
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s`, s.table)
	var count int
	if err := s.pool.QueryRow(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("count acts: %w", err)
	}
	return count, nil
}

// ListCelexNumbers returns every stored CELEX number.
func (s *ActStore) ListCelexNumbers(ctx context.Context) ([]string, error) {
	if s == nil || s.pool == nil {
		return nil, fmt.Errorf("act store is not configured")
	}
	query := fmt.Sprintf(`SELECT celex_number FROM %s`, s.table)
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list celex numbers: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan celex number: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list celex numbers: %w", err)
	}
	return ids, nil
}

// ListActs returns stored acts, most recently written first. A non-positive
// limit returns everything.
func (s *ActStore) ListActs(ctx context.Context, limit int) ([]eurlex.LegalAct, error) {
	if s == nil || s.pool == nil {
		return nil, fmt.Errorf("act store is not configured")
	}
	base := fmt.Sprintf(`
SELECT
	celex_number,
	title,
	document_type,
	subject_matter,
	directory_code,
	date_document,
	date_force,
	date_end_validity,
	content,
	content_hash,
	summary,
	keywords,
	legal_basis,
	procedure,
	addressee,
	url
FROM %s
ORDER BY updated_at DESC, id DESC`, s.table)

	var (
		rows pgx.Rows
		err  error
	)
	if limit > 0 {
		rows, err = s.pool.Query(ctx, base+` LIMIT $1`, limit)
	} else {
		rows, err = s.pool.Query(ctx, base)
	}
	if err != nil {
		return nil, fmt.Errorf("list acts: %w", err)
	}
	defer rows.Close()

	var acts []eurlex.LegalAct
	for rows.Next() {
		var act eurlex.LegalAct
		err := rows.Scan(
			&act.Celex,
			&act.Title,
			&act.DocumentType,
			&act.SubjectMatter,
			&act.DirectoryCode,
			&act.DateDocument,
			&act.DateForce,
			&act.DateEndValidity,
			&act.Content,
			&act.ContentHash,
			&act.Summary,
			&act.Keywords,
			&act.LegalBasis,
			&act.Procedure,
			&act.Addressee,
			&act.URL,
		)
		if err != nil {
			return nil, fmt.Errorf("scan act row: %w", err)
		}
		acts = append(acts, act)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list acts: %w", err)
	}
	return acts, nil
}

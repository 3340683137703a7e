package store

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"milos55/reklamiworker/internal/ad"
	"milos55/reklamiworker/logger"
	"milos55/reklamiworker/metrics"
	"milos55/reklamiworker/pkg/errors"
)

const schemaSQL = `
CREATE SCHEMA IF NOT EXISTS ads;
CREATE TABLE IF NOT EXISTS ads.ads (
	id          BIGSERIAL PRIMARY KEY,
	title       TEXT NOT NULL,
	description TEXT,
	link        TEXT NOT NULL UNIQUE,
	image_url   TEXT,
	category    TEXT,
	phone       TEXT[] NOT NULL DEFAULT '{}',
	date        DATE,
	price       BIGINT,
	currency    TEXT NOT NULL DEFAULT '',
	location    TEXT,
	store       TEXT NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS ads_store_idx ON ads.ads (store);`

const insertSQL = `
INSERT INTO ads.ads (title, description, link, image_url, category, phone, date, price, currency, location, store)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
`

// xmax is 0 only for rows created by this statement
const (
	onConflictNothing = `ON CONFLICT (link) DO NOTHING RETURNING (xmax = 0)`
	onConflictUpdate  = `ON CONFLICT (link) DO UPDATE SET
	title = EXCLUDED.title, description = EXCLUDED.description, image_url = EXCLUDED.image_url,
	category = EXCLUDED.category, phone = EXCLUDED.phone, date = EXCLUDED.date, price = EXCLUDED.price,
	currency = EXCLUDED.currency, location = EXCLUDED.location, updated_at = now()
RETURNING (xmax = 0)`
)

// PostgresStore persists ads in the ads.ads table
type PostgresStore struct {
	pool   *pgxpool.Pool
	policy ConflictPolicy
	log    *logger.Logger
}

// NewPostgresStore opens a pool, checks connectivity and creates the schema
func NewPostgresStore(ctx context.Context, dsn string, maxConns int, policy ConflictPolicy) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, errors.NewConfiguration("invalid DATABASE_URL", err)
	}
	if maxConns <= 0 {
		maxConns = 2
	}
	cfg.MaxConns = int32(maxConns)

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, errors.NewPersistence("postgres", "connect", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, errors.NewPersistence("postgres", "ping", err)
	}

	s := &PostgresStore{pool: pool, policy: policy, log: logger.ForStore()}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *PostgresStore) migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return errors.NewPersistence("postgres", "create schema", err)
	}
	return nil
}

// SaveBatch upserts every ad on one connection held for the batch. A failing
// record is logged and counted; only failing to get a connection is fatal.
func (s *PostgresStore) SaveBatch(ctx context.Context, ads []*ad.Ad) (BatchResult, error) {
	var result BatchResult
	if len(ads) == 0 {
		return result, nil
	}

	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return result, errors.NewPersistence("postgres", "acquire connection", err)
	}
	defer conn.Release()

	query := insertSQL + onConflictNothing
	if s.policy == Update {
		query = insertSQL + onConflictUpdate
	}

	for _, a := range ads {
		var inserted bool
		err := conn.QueryRow(ctx, query, row(a)...).Scan(&inserted)
		switch {
		case stderrors.Is(err, pgx.ErrNoRows):
			result.Unchanged++
		case err != nil:
			result.Failed = append(result.Failed, a)
			metrics.AdsPersistedTotal.WithLabelValues(a.Store, "failed").Inc()
			s.log.Error().Err(err).Str("link", a.Link).Msg("failed to save ad")
			if ctx.Err() != nil {
				return result, ctx.Err()
			}
		case inserted:
			result.Inserted = append(result.Inserted, a)
		default:
			result.Updated++
		}
	}
	return result, nil
}

// row maps an ad to the insert parameters; absent price and date become NULL
func row(a *ad.Ad) []interface{} {
	var price *int64
	if !a.Price.Negotiable {
		amount := a.Price.Amount
		price = &amount
	}
	var date *time.Time
	if a.HasDate() {
		d := a.Date
		date = &d
	}
	phones := a.Phones
	if phones == nil {
		phones = []string{}
	}
	return []interface{}{
		a.Title, nullable(a.Description), a.Link, nullable(a.ImageURL), nullable(a.Category),
		phones, date, price, a.Price.Currency, nullable(a.Location), a.Store,
	}
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Links implements Store
func (s *PostgresStore) Links(ctx context.Context, offset, limit int) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT link FROM ads.ads ORDER BY id OFFSET $1 LIMIT $2`, offset, limit)
	if err != nil {
		return nil, errors.NewPersistence("postgres", "select links", err)
	}
	links, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, errors.NewPersistence("postgres", "scan links", err)
	}
	return links, nil
}

// DeleteLinks implements Store
func (s *PostgresStore) DeleteLinks(ctx context.Context, links []string) (int, error) {
	if len(links) == 0 {
		return 0, nil
	}
	tag, err := s.pool.Exec(ctx, `DELETE FROM ads.ads WHERE link = ANY($1)`, links)
	if err != nil {
		return 0, errors.NewPersistence("postgres", "delete links", err)
	}
	return int(tag.RowsAffected()), nil
}

// Close implements Store
func (s *PostgresStore) Close() {
	s.pool.Close()
}

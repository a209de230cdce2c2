package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/leadgen-cli/internal/db"
	"github.com/sells-group/leadgen-cli/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

const (
	productColumns = `id, name, description, target_keywords, ai_description, created_at`
	leadColumns    = `id, company_name, website, location, phone, industry_vertical, status, email, best_email_source, interested_product_id, match_score, match_reason, notes, generated_email, created_at`
)

// preparedStatements are prepared on each new connection. The search loop
// hits lead_exists and insert_lead once per candidate.
var preparedStatements = map[string]string{
	"lead_exists": `SELECT EXISTS (SELECT 1 FROM leads WHERE website = $1)`,
	"insert_lead": `INSERT INTO leads (` + leadColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
	"get_product": `SELECT ` + productColumns + ` FROM products WHERE id = $1`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(1)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS products (
	id              TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	name            TEXT NOT NULL,
	description     TEXT NOT NULL DEFAULT '',
	target_keywords TEXT NOT NULL DEFAULT '',
	ai_description  TEXT NOT NULL DEFAULT '',
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS leads (
	id                    TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	company_name          TEXT NOT NULL,
	website               TEXT NOT NULL DEFAULT '',
	location              TEXT NOT NULL DEFAULT '',
	phone                 TEXT NOT NULL DEFAULT '',
	industry_vertical     TEXT NOT NULL DEFAULT '',
	status                TEXT NOT NULL DEFAULT 'New',
	email                 TEXT NOT NULL DEFAULT '',
	best_email_source     TEXT NOT NULL DEFAULT '',
	interested_product_id TEXT REFERENCES products(id) ON DELETE SET NULL,
	match_score           INTEGER NOT NULL DEFAULT 0,
	match_reason          TEXT NOT NULL DEFAULT '',
	notes                 TEXT NOT NULL DEFAULT '',
	generated_email       TEXT NOT NULL DEFAULT '',
	created_at            TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_leads_website ON leads(website);
CREATE INDEX IF NOT EXISTS idx_leads_created_at ON leads(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_leads_product ON leads(interested_product_id);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.pool.Ping(ctx), "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) CreateProduct(ctx context.Context, p model.Product) (*model.Product, error) {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO products (`+productColumns+`) VALUES ($1, $2, $3, $4, $5, $6)`,
		p.ID, p.Name, p.Description, p.TargetKeywords, p.AIDescription, p.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert product")
	}
	return &p, nil
}

func (s *PostgresStore) GetProduct(ctx context.Context, id string) (*model.Product, error) {
	var p model.Product
	err := s.pool.QueryRow(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = $1`, id,
	).Scan(&p.ID, &p.Name, &p.Description, &p.TargetKeywords, &p.AIDescription, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get product %s", id)
	}
	return &p, nil
}

func (s *PostgresStore) ListProducts(ctx context.Context) ([]model.Product, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+productColumns+` FROM products ORDER BY name`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list products")
	}
	defer rows.Close()

	var products []model.Product
	for rows.Next() {
		var p model.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.TargetKeywords, &p.AIDescription, &p.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan product")
		}
		products = append(products, p)
	}
	return products, eris.Wrap(rows.Err(), "postgres: list products iterate")
}

func (s *PostgresStore) LeadExistsByWebsite(ctx context.Context, website string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM leads WHERE website = $1)`, website,
	).Scan(&exists)
	if err != nil {
		return false, eris.Wrapf(err, "postgres: lead exists %s", website)
	}
	return exists, nil
}

func (s *PostgresStore) InsertLead(ctx context.Context, lead model.Lead) (*model.Lead, error) {
	if lead.ID == "" {
		lead.ID = uuid.New().String()
	}
	if lead.CreatedAt.IsZero() {
		lead.CreatedAt = time.Now().UTC()
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO leads (`+leadColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		lead.ID, lead.CompanyName, lead.Website, lead.Location, lead.Phone,
		lead.IndustryVertical, lead.Status, lead.Email, lead.BestEmailSource,
		nullIfEmpty(lead.InterestedProductID), lead.MatchScore, lead.MatchReason,
		lead.Notes, lead.GeneratedEmail, lead.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: insert lead %s", lead.CompanyName)
	}
	return &lead, nil
}

func (s *PostgresStore) GetLead(ctx context.Context, id string) (*model.Lead, error) {
	l, err := scanLead(s.pool.QueryRow(ctx, `SELECT `+leadColumns+` FROM leads WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get lead %s", id)
	}
	return l, nil
}

func (s *PostgresStore) ListRecentLeads(ctx context.Context, limit int) ([]model.Lead, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+leadColumns+` FROM leads ORDER BY created_at DESC LIMIT $1`, listLimit(limit),
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list leads")
	}
	defer rows.Close()

	var leads []model.Lead
	for rows.Next() {
		l, err := scanLead(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan lead")
		}
		leads = append(leads, *l)
	}
	return leads, eris.Wrap(rows.Err(), "postgres: list leads iterate")
}

func (s *PostgresStore) UpdateLeadScore(ctx context.Context, id string, score int, reason string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE leads SET match_score = $1, match_reason = $2 WHERE id = $3`,
		score, reason, id,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update lead score %s", id)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) SetGeneratedEmail(ctx context.Context, id string, email string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE leads SET generated_email = $1 WHERE id = $2`,
		email, id,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: set generated email %s", id)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanLead(row scannable) (*model.Lead, error) {
	var l model.Lead
	var productID *string
	err := row.Scan(
		&l.ID, &l.CompanyName, &l.Website, &l.Location, &l.Phone,
		&l.IndustryVertical, &l.Status, &l.Email, &l.BestEmailSource,
		&productID, &l.MatchScore, &l.MatchReason, &l.Notes, &l.GeneratedEmail, &l.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if productID != nil {
		l.InterestedProductID = *productID
	}
	return &l, nil
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/DEMONNN69/knowyourcompany/internal/company"
	"github.com/DEMONNN69/knowyourcompany/pkg/platform/sentinel"
)

// Postgres persists insights in a single companies table keyed by canonical
// name. Flags and source signals are stored as JSONB: they are read and
// written as a unit, never queried by field.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const companiesSchema = `
CREATE TABLE IF NOT EXISTS companies (
	canonical_name  TEXT PRIMARY KEY,
	name            TEXT NOT NULL,
	website         TEXT NOT NULL DEFAULT '',
	score           DOUBLE PRECISION,
	scam_risk       TEXT NOT NULL,
	company_type    TEXT,
	flags           JSONB NOT NULL DEFAULT '[]',
	sources         JSONB NOT NULL DEFAULT '[]',
	last_checked_at TIMESTAMPTZ NOT NULL
)`

// EnsureSchema creates the companies table when it does not exist yet.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	if _, err := p.db.ExecContext(ctx, companiesSchema); err != nil {
		return fmt.Errorf("ensure companies schema: %w", err)
	}
	return nil
}

func (p *Postgres) FindByCanonicalName(ctx context.Context, key string) (*company.Insight, error) {
	query := `
		SELECT canonical_name, name, website, score, scam_risk, company_type,
		       flags, sources, last_checked_at
		FROM companies
		WHERE canonical_name = $1
	`

	var (
		insight     company.Insight
		score       sql.NullFloat64
		companyType sql.NullString
		flagsJSON   []byte
		sourcesJSON []byte
	)
	err := p.db.QueryRowContext(ctx, query, key).Scan(
		&insight.CanonicalName,
		&insight.Name,
		&insight.Website,
		&score,
		&insight.Risk,
		&companyType,
		&flagsJSON,
		&sourcesJSON,
		&insight.LastCheckedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find company %q: %w", key, err)
	}

	if score.Valid {
		insight.Score = &score.Float64
	}
	if companyType.Valid {
		ct := company.CompanyType(companyType.String)
		insight.CompanyType = &ct
	}
	if err := json.Unmarshal(flagsJSON, &insight.Flags); err != nil {
		return nil, fmt.Errorf("decode flags for %q: %w", key, err)
	}
	if err := json.Unmarshal(sourcesJSON, &insight.Sources); err != nil {
		return nil, fmt.Errorf("decode sources for %q: %w", key, err)
	}
	return &insight, nil
}

func (p *Postgres) Save(ctx context.Context, insight *company.Insight) error {
	if insight == nil {
		return nil
	}

	flagsJSON, err := json.Marshal(insight.Flags)
	if err != nil {
		return fmt.Errorf("encode flags for %q: %w", insight.CanonicalName, err)
	}
	sourcesJSON, err := json.Marshal(insight.Sources)
	if err != nil {
		return fmt.Errorf("encode sources for %q: %w", insight.CanonicalName, err)
	}

	var score any
	if insight.Score != nil {
		score = *insight.Score
	}
	var companyType any
	if insight.CompanyType != nil {
		companyType = string(*insight.CompanyType)
	}

	query := `
		INSERT INTO companies (canonical_name, name, website, score, scam_risk,
		                       company_type, flags, sources, last_checked_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (canonical_name) DO UPDATE SET
			name            = EXCLUDED.name,
			website         = EXCLUDED.website,
			score           = EXCLUDED.score,
			scam_risk       = EXCLUDED.scam_risk,
			company_type    = EXCLUDED.company_type,
			flags           = EXCLUDED.flags,
			sources         = EXCLUDED.sources,
			last_checked_at = EXCLUDED.last_checked_at
	`
	_, err = p.db.ExecContext(ctx, query,
		insight.CanonicalName,
		insight.Name,
		insight.Website,
		score,
		string(insight.Risk),
		companyType,
		flagsJSON,
		sourcesJSON,
		insight.LastCheckedAt,
	)
	if err != nil {
		return fmt.Errorf("save company %q: %w", insight.CanonicalName, err)
	}
	return nil
}

func (p *Postgres) Delete(ctx context.Context, key string) error {
	result, err := p.db.ExecContext(ctx, `DELETE FROM companies WHERE canonical_name = $1`, key)
	if err != nil {
		return fmt.Errorf("delete company %q: %w", key, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete company %q: %w", key, err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

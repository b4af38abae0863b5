package records

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"

	"github.com/mbd888/ipsentry/migrations"
)

// PostgresStore persists IP records in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a PostgreSQL-backed record store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate applies the embedded goose migrations, bringing the schema to the
// latest version. The SQL lives in migrations/ so the server, cmd/migrate,
// and tests all share one definition of ip_records.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	goose.SetBaseFS(migrations.FS)
	defer goose.SetBaseFS(nil)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, s.db, "."); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// Save writes the record in a single INSERT. No upsert: ip is not a
// uniqueness key, repeated tracking appends history.
func (s *PostgresStore) Save(ctx context.Context, rec *IPRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO ip_records (
			id, ip, city, region, country, org,
			vpn, tor, fraud_score, recent_abuse, bot_status,
			suspicion_level, tracked_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`,
		rec.ID,
		rec.IP,
		rec.City,
		rec.Region,
		rec.Country,
		rec.Org,
		rec.VPN,
		rec.Tor,
		rec.FraudScore,
		rec.RecentAbuse,
		rec.BotStatus,
		rec.SuspicionLevel,
		rec.TrackedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save ip record: %w", err)
	}
	return nil
}

// List returns the most recent records, newest first.
func (s *PostgresStore) List(ctx context.Context, limit int) ([]*IPRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, ip, city, region, country, org,
		       vpn, tor, fraud_score, recent_abuse, bot_status,
		       suspicion_level, tracked_at
		FROM ip_records
		ORDER BY tracked_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list ip records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var result []*IPRecord
	for rows.Next() {
		var rec IPRecord
		if err := rows.Scan(
			&rec.ID, &rec.IP, &rec.City, &rec.Region, &rec.Country, &rec.Org,
			&rec.VPN, &rec.Tor, &rec.FraudScore, &rec.RecentAbuse, &rec.BotStatus,
			&rec.SuspicionLevel, &rec.TrackedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan ip record: %w", err)
		}
		result = append(result, &rec)
	}
	return result, rows.Err()
}

// CountByLabel returns the number of records with the given suspicion label.
func (s *PostgresStore) CountByLabel(ctx context.Context, label string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM ip_records WHERE suspicion_level = $1
	`, label).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count ip records: %w", err)
	}
	return count, nil
}

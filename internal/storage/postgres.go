package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/terra-clan/practice-engine/internal/models"
)

// PostgresRepository implements Repository using PostgreSQL
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// PostgresConfig holds PostgreSQL connection configuration
type PostgresConfig struct {
	DSN          string
	MaxOpenConns int32
	MaxIdleConns int32
	MaxLifetime  time.Duration
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(ctx context.Context, cfg PostgresConfig) (*PostgresRepository, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DSN: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		poolConfig.MaxConns = cfg.MaxOpenConns
	} else {
		poolConfig.MaxConns = 25 // default
	}

	if cfg.MaxIdleConns > 0 {
		poolConfig.MinConns = cfg.MaxIdleConns
	} else {
		poolConfig.MinConns = 5 // default
	}

	if cfg.MaxLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.MaxLifetime
	} else {
		poolConfig.MaxConnLifetime = 30 * time.Minute
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	// Test connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresRepository{pool: pool}, nil
}

// Pool exposes the underlying connection pool for migrations
func (r *PostgresRepository) Pool() *pgxpool.Pool {
	return r.pool
}

// Ping checks database connectivity
func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// Close closes the database connection pool
func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}

// RecordSolved appends a solved problem to the user's history. Solving the
// same problem again refreshes the timestamp instead of duplicating the row.
func (r *PostgresRepository) RecordSolved(ctx context.Context, sp *models.SolvedProblem) error {
	query := `
		INSERT INTO solved_problems (user_id, slug, title, solved_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, slug) DO UPDATE
		SET solved_at = EXCLUDED.solved_at, title = EXCLUDED.title
	`

	_, err := r.pool.Exec(ctx, query, sp.UserID, sp.Slug, sp.Title, sp.SolvedAt)
	if err != nil {
		return fmt.Errorf("failed to record solved problem: %w", err)
	}

	return nil
}

// ListSolved returns a user's solved history, newest first
func (r *PostgresRepository) ListSolved(ctx context.Context, userID string, limit, offset int) ([]*models.SolvedProblem, error) {
	query := `
		SELECT user_id, slug, title, solved_at
		FROM solved_problems
		WHERE user_id = $1
		ORDER BY solved_at DESC
	`
	args := []interface{}{userID}
	argNum := 2

	if limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argNum)
		args = append(args, limit)
		argNum++
	}

	if offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argNum)
		args = append(args, offset)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list solved problems: %w", err)
	}
	defer rows.Close()

	var solved []*models.SolvedProblem

	for rows.Next() {
		var sp models.SolvedProblem
		if err := rows.Scan(&sp.UserID, &sp.Slug, &sp.Title, &sp.SolvedAt); err != nil {
			return nil, fmt.Errorf("failed to scan solved problem: %w", err)
		}
		solved = append(solved, &sp)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating solved problems: %w", err)
	}

	return solved, nil
}

// GetStats returns the aggregate practice record for a user. A user with no
// history gets a zero-valued record, not an error.
func (r *PostgresRepository) GetStats(ctx context.Context, userID string) (*models.UserStats, error) {
	query := `
		SELECT COUNT(*), COALESCE(MAX(solved_at), 'epoch'::timestamptz)
		FROM solved_problems
		WHERE user_id = $1
	`

	stats := &models.UserStats{UserID: userID}
	var lastSolvedAt time.Time

	if err := r.pool.QueryRow(ctx, query, userID).Scan(&stats.SolvedCount, &lastSolvedAt); err != nil {
		return nil, fmt.Errorf("failed to get user stats: %w", err)
	}
	stats.UpdatedAt = lastSolvedAt

	if stats.SolvedCount > 0 {
		lastQuery := `
			SELECT slug FROM solved_problems
			WHERE user_id = $1
			ORDER BY solved_at DESC
			LIMIT 1
		`
		if err := r.pool.QueryRow(ctx, lastQuery, userID).Scan(&stats.LastSolved); err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("failed to get last solved: %w", err)
		}
	}

	return stats, nil
}

// SaveReport persists a completed interview report
func (r *PostgresRepository) SaveReport(ctx context.Context, report *models.InterviewReport) error {
	query := `
		INSERT INTO interview_reports (id, user_id, topic, persona, report, questions, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.pool.Exec(ctx, query,
		report.ID,
		report.UserID,
		report.Topic,
		string(report.Persona),
		report.Report,
		report.Questions,
		report.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to save interview report: %w", err)
	}

	return nil
}

// GetReport retrieves an interview report by ID
func (r *PostgresRepository) GetReport(ctx context.Context, id string) (*models.InterviewReport, error) {
	query := `
		SELECT id, user_id, topic, persona, report, questions, created_at
		FROM interview_reports
		WHERE id = $1
	`

	var rep models.InterviewReport
	var personaStr string

	err := r.pool.QueryRow(ctx, query, id).Scan(
		&rep.ID,
		&rep.UserID,
		&rep.Topic,
		&personaStr,
		&rep.Report,
		&rep.Questions,
		&rep.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("failed to get interview report: %w", err)
	}

	rep.Persona = models.Persona(personaStr)
	return &rep, nil
}

// ListReports returns a user's interview reports, newest first
func (r *PostgresRepository) ListReports(ctx context.Context, userID string, limit, offset int) ([]*models.InterviewReport, error) {
	query := `
		SELECT id, user_id, topic, persona, report, questions, created_at
		FROM interview_reports
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	args := []interface{}{userID}
	argNum := 2

	if limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argNum)
		args = append(args, limit)
		argNum++
	}

	if offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argNum)
		args = append(args, offset)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list interview reports: %w", err)
	}
	defer rows.Close()

	var reports []*models.InterviewReport

	for rows.Next() {
		var rep models.InterviewReport
		var personaStr string

		err := rows.Scan(
			&rep.ID,
			&rep.UserID,
			&rep.Topic,
			&personaStr,
			&rep.Report,
			&rep.Questions,
			&rep.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan interview report: %w", err)
		}

		rep.Persona = models.Persona(personaStr)
		reports = append(reports, &rep)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating interview reports: %w", err)
	}

	return reports, nil
}

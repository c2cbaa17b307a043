package storage

import (
	"context"

	"github.com/terra-clan/practice-engine/internal/models"
)

// Repository defines the interface for durable practice records
type Repository interface {
	// Solved history
	RecordSolved(ctx context.Context, sp *models.SolvedProblem) error
	ListSolved(ctx context.Context, userID string, limit, offset int) ([]*models.SolvedProblem, error)
	GetStats(ctx context.Context, userID string) (*models.UserStats, error)

	// Interview reports
	SaveReport(ctx context.Context, report *models.InterviewReport) error
	GetReport(ctx context.Context, id string) (*models.InterviewReport, error)
	ListReports(ctx context.Context, userID string, limit, offset int) ([]*models.InterviewReport, error)

	// Health
	Ping(ctx context.Context) error
	Close() error
}

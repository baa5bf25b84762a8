package database

import (
	"context"
	"time"

	"github.com/benvon/taskdeck/internal/models"
)

// TaskStore defines the persistence contract the instance-materialization
// service depends on. The interface enables better testability by allowing
// mock implementations.
type TaskStore interface {
	FindByID(ctx context.Context, id string) (*models.Task, error)
	Save(ctx context.Context, task *models.Task) error
	Delete(ctx context.Context, id string) (bool, error)
	FindOverrideInstances(ctx context.Context, seriesID string) ([]*models.Task, error)
	FindOverrideInstance(ctx context.Context, seriesID string, occurrenceDate time.Time) (*models.Task, error)
	ListSeries(ctx context.Context) ([]*models.Task, error)
	DeleteSeries(ctx context.Context, seriesID string) (int64, error)
}

// Ensure the concrete type implements the interface
var _ TaskStore = (*TaskRepository)(nil)

// Package postgresql provides the PostgreSQL persistence implementation.
package postgresql

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	// Registers the postgres driver with database/sql.
	_ "github.com/lib/pq"

	"github.com/stockflow-io/stockflow/pkg/persistence"
	"github.com/stockflow-io/stockflow/pkg/persistence/sqlbase"
)

// Persistence implements persistence.Persistence on PostgreSQL.
type Persistence struct {
	db     *sql.DB
	logger *slog.Logger

	workflowRepo          *WorkflowRepository
	workflowExecutionRepo *WorkflowExecutionRepository
	alertRepo             *AlertRepository
	taskRepo              *TaskRepository
	taskExecutionRepo     *TaskExecutionRepository
	notificationRepo      *NotificationRepository
	userRepo              *UserRepository
	inventoryRepo         *InventoryRepository
}

// NewPersistence connects, runs migrations, and returns the persistence
// layer.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (*Persistence, error) {
	database, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL database: %w", err)
	}

	if err := database.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	migrationManager := sqlbase.NewMigrationManager(logger, database, migrations())
	if err := migrationManager.RunMigrations(ctx); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Persistence{
		db:                    database,
		logger:                logger,
		workflowRepo:          &WorkflowRepository{db: database, logger: logger},
		workflowExecutionRepo: &WorkflowExecutionRepository{db: database},
		alertRepo:             &AlertRepository{db: database},
		taskRepo:              &TaskRepository{db: database},
		taskExecutionRepo:     &TaskExecutionRepository{db: database},
		notificationRepo:      &NotificationRepository{db: database},
		userRepo:              &UserRepository{db: database},
		inventoryRepo:         &InventoryRepository{db: database},
	}, nil
}

func (p *Persistence) Workflows() persistence.WorkflowRepository { return p.workflowRepo }

func (p *Persistence) WorkflowExecutions() persistence.WorkflowExecutionRepository {
	return p.workflowExecutionRepo
}

func (p *Persistence) Alerts() persistence.AlertRepository { return p.alertRepo }

func (p *Persistence) Tasks() persistence.TaskRepository { return p.taskRepo }

func (p *Persistence) TaskExecutions() persistence.TaskExecutionRepository {
	return p.taskExecutionRepo
}

func (p *Persistence) Notifications() persistence.NotificationRepository { return p.notificationRepo }

func (p *Persistence) Users() persistence.UserRepository { return p.userRepo }

func (p *Persistence) Inventory() persistence.InventoryRepository { return p.inventoryRepo }

// HealthCheck verifies the database connection is healthy.
func (p *Persistence) HealthCheck(ctx context.Context) error {
	if err := p.db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	return nil
}

// Close closes the database connection.
func (p *Persistence) Close(_ context.Context) error {
	if p.db != nil {
		if err := p.db.Close(); err != nil {
			return fmt.Errorf("failed to close database connection: %w", err)
		}
	}

	return nil
}

package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/stockflow-io/stockflow/pkg/models"
	"github.com/stockflow-io/stockflow/pkg/persistence"
)

// AlertRepository stores alert records.
type AlertRepository struct {
	db *sql.DB
}

const alertColumns = `
	id
  , tenant_id
  , type
  , severity
  , title
  , message
  , entity_type
  , entity_id
  , metadata
  , triggered_at
  , acknowledged_by
  , acknowledged_at
  , resolved
  , resolved_at
`

func (r *AlertRepository) Create(ctx context.Context, alert *models.Alert) error {
	metadata, err := json.Marshal(alert.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	query := `
		INSERT INTO alerts (id, tenant_id, type, severity, title, message, entity_type, entity_id,
			metadata, triggered_at, acknowledged_by, acknowledged_at, resolved, resolved_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err = r.db.ExecContext(ctx, query,
		alert.ID, alert.TenantID, string(alert.Type), string(alert.Severity),
		alert.Title, alert.Message, alert.EntityType, alert.EntityID,
		metadata, alert.TriggeredAt,
		nullString(alert.AcknowledgedBy), alert.AcknowledgedAt,
		alert.Resolved, alert.ResolvedAt,
	)
	if err != nil {
		return persistence.NewRecordError("Create", "alert", alert.ID, err)
	}

	return nil
}

func (r *AlertRepository) GetByID(ctx context.Context, id string) (*models.Alert, error) {
	query := `SELECT ` + alertColumns + ` FROM alerts WHERE id = $1`

	alert, err := scanAlert(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.ErrAlertNotFound
		}

		return nil, fmt.Errorf("failed to scan alert: %w", err)
	}

	return alert, nil
}

func (r *AlertRepository) List(ctx context.Context, tenantID string, filter persistence.AlertFilter) ([]*models.Alert, error) {
	query := `SELECT ` + alertColumns + ` FROM alerts WHERE tenant_id = $1`
	args := []any{tenantID}

	if filter.Type != "" {
		args = append(args, string(filter.Type))
		query += fmt.Sprintf(" AND type = $%d", len(args))
	}

	if filter.Unresolved {
		query += " AND NOT resolved"
	}

	query += " ORDER BY triggered_at DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query alerts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	alerts := make([]*models.Alert, 0)

	for rows.Next() {
		alert, err := scanAlert(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", err)
		}

		alerts = append(alerts, alert)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating alerts: %w", err)
	}

	return alerts, nil
}

func (r *AlertRepository) Update(ctx context.Context, alert *models.Alert) error {
	query := `
		UPDATE alerts SET
			acknowledged_by = $2,
			acknowledged_at = $3,
			resolved = $4,
			resolved_at = $5
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query,
		alert.ID, nullString(alert.AcknowledgedBy), alert.AcknowledgedAt,
		alert.Resolved, alert.ResolvedAt,
	)
	if err != nil {
		return persistence.NewRecordError("Update", "alert", alert.ID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}

	if affected == 0 {
		return persistence.ErrAlertNotFound
	}

	return nil
}

func (r *AlertRepository) LatestForEntity(ctx context.Context, tenantID string, alertType models.AlertType, entityID string) (*models.Alert, error) {
	query := `SELECT ` + alertColumns + `
		FROM alerts
		WHERE tenant_id = $1 AND type = $2 AND entity_id = $3
		ORDER BY triggered_at DESC
		LIMIT 1`

	alert, err := scanAlert(r.db.QueryRowContext(ctx, query, tenantID, string(alertType), entityID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.ErrAlertNotFound
		}

		return nil, fmt.Errorf("failed to scan alert: %w", err)
	}

	return alert, nil
}

func (r *AlertRepository) PurgeResolvedBefore(ctx context.Context, cutoff time.Time) (int, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM alerts WHERE resolved AND resolved_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge alerts: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}

	return int(affected), nil
}

func scanAlert(row rowScanner) (*models.Alert, error) {
	var (
		alert          models.Alert
		alertType      string
		severity       string
		metadata       []byte
		acknowledgedBy sql.NullString
		acknowledgedAt sql.NullTime
		resolvedAt     sql.NullTime
	)

	err := row.Scan(
		&alert.ID, &alert.TenantID, &alertType, &severity,
		&alert.Title, &alert.Message, &alert.EntityType, &alert.EntityID,
		&metadata, &alert.TriggeredAt,
		&acknowledgedBy, &acknowledgedAt,
		&alert.Resolved, &resolvedAt,
	)
	if err != nil {
		return nil, err
	}

	alert.Type = models.AlertType(alertType)
	alert.Severity = models.AlertSeverity(severity)
	alert.AcknowledgedBy = acknowledgedBy.String

	if acknowledgedAt.Valid {
		alert.AcknowledgedAt = &acknowledgedAt.Time
	}

	if resolvedAt.Valid {
		alert.ResolvedAt = &resolvedAt.Time
	}

	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &alert.Metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
		}
	}

	return &alert, nil
}

// NotificationRepository stores in-app notification records.
type NotificationRepository struct {
	db *sql.DB
}

func (r *NotificationRepository) Create(ctx context.Context, notification *models.Notification) error {
	query := `
		INSERT INTO notifications (id, tenant_id, user_id, category, title, message, link, read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.ExecContext(ctx, query,
		notification.ID, notification.TenantID, notification.UserID,
		notification.Category, notification.Title, notification.Message,
		notification.Link, notification.Read, notification.CreatedAt,
	)
	if err != nil {
		return persistence.NewRecordError("Create", "notification", notification.ID, err)
	}

	return nil
}

func (r *NotificationRepository) ListByUser(ctx context.Context, tenantID, userID string) ([]*models.Notification, error) {
	query := `
		SELECT id, tenant_id, user_id, category, title, message, link, read, created_at
		FROM notifications
		WHERE tenant_id = $1 AND user_id = $2
		ORDER BY created_at
	`

	rows, err := r.db.QueryContext(ctx, query, tenantID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query notifications: %w", err)
	}
	defer func() { _ = rows.Close() }()

	notifications := make([]*models.Notification, 0)

	for rows.Next() {
		var notification models.Notification

		err := rows.Scan(&notification.ID, &notification.TenantID, &notification.UserID,
			&notification.Category, &notification.Title, &notification.Message,
			&notification.Link, &notification.Read, &notification.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}

		notifications = append(notifications, &notification)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating notifications: %w", err)
	}

	return notifications, nil
}

// UserRepository reads the user slice the notifier needs. The users table is
// owned by the surrounding application.
type UserRepository struct {
	db *sql.DB
}

func (r *UserRepository) ListNotifiable(ctx context.Context, tenantID string) ([]*models.User, error) {
	query := `
		SELECT id, tenant_id, email, role, alert_preferences
		FROM users
		WHERE tenant_id = $1 AND role IN ('admin', 'supervisor')
	`

	rows, err := r.db.QueryContext(ctx, query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer func() { _ = rows.Close() }()

	users := make([]*models.User, 0)

	for rows.Next() {
		var (
			user        models.User
			role        string
			preferences []byte
		)

		if err := rows.Scan(&user.ID, &user.TenantID, &user.Email, &role, &preferences); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}

		user.Role = models.UserRole(role)

		if len(preferences) > 0 {
			if err := json.Unmarshal(preferences, &user.AlertPreferences); err != nil {
				return nil, fmt.Errorf("failed to unmarshal alert preferences: %w", err)
			}
		}

		users = append(users, &user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}

	return users, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

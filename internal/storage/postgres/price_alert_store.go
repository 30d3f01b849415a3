package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"dexwatch/internal/domain"
	"dexwatch/internal/storage"
)

// PriceAlertStore implements storage.PriceAlertStore using PostgreSQL.
type PriceAlertStore struct {
	pool *Pool
}

// NewPriceAlertStore creates a new PriceAlertStore.
func NewPriceAlertStore(pool *Pool) *PriceAlertStore {
	return &PriceAlertStore{pool: pool}
}

// Compile-time interface check.
var _ storage.PriceAlertStore = (*PriceAlertStore)(nil)

const priceAlertColumns = `
	alert_id, token_id, triggered_at,
	trigger_price::text, ath_price::text, entry_price::text,
	drop_from_ath, drop_from_entry, tier, severity, acknowledged
`

// Insert adds a new alert. Returns ErrDuplicateKey if alert_id exists.
func (s *PriceAlertStore) Insert(ctx context.Context, a *domain.PriceAlert) error {
	if a == nil || a.AlertID == "" || a.TokenID == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO price_alerts (
			alert_id, token_id, triggered_at,
			trigger_price, ath_price, entry_price,
			drop_from_ath, drop_from_entry, tier, severity, acknowledged
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := s.pool.Exec(ctx, query,
		a.AlertID,
		a.TokenID,
		a.TriggeredAt,
		a.TriggerPrice.String(),
		a.ATHPrice.String(),
		a.EntryPrice.String(),
		a.DropFromATH,
		a.DropFromEntry,
		a.Tier,
		string(a.Severity),
		a.Acknowledged,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert price alert: %w", err)
	}
	return nil
}

// GetByTokenID retrieves all alerts for a token, ordered by triggered_at ASC.
func (s *PriceAlertStore) GetByTokenID(ctx context.Context, tokenID string) ([]*domain.PriceAlert, error) {
	query := `
		SELECT ` + priceAlertColumns + `
		FROM price_alerts
		WHERE token_id = $1
		ORDER BY triggered_at ASC, alert_id ASC
	`

	rows, err := s.pool.Query(ctx, query, tokenID)
	if err != nil {
		return nil, fmt.Errorf("get alerts by token: %w", err)
	}
	defer rows.Close()

	return scanPriceAlerts(rows)
}

// GetUnacknowledged retrieves all unacknowledged alerts, ordered by triggered_at ASC.
func (s *PriceAlertStore) GetUnacknowledged(ctx context.Context) ([]*domain.PriceAlert, error) {
	query := `
		SELECT ` + priceAlertColumns + `
		FROM price_alerts
		WHERE NOT acknowledged
		ORDER BY triggered_at ASC, alert_id ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get unacknowledged alerts: %w", err)
	}
	defer rows.Close()

	return scanPriceAlerts(rows)
}

// Acknowledge marks an alert as seen. Returns ErrNotFound if not exists.
func (s *PriceAlertStore) Acknowledge(ctx context.Context, alertID string) error {
	query := `UPDATE price_alerts SET acknowledged = TRUE WHERE alert_id = $1`

	tag, err := s.pool.Exec(ctx, query, alertID)
	if err != nil {
		return fmt.Errorf("acknowledge alert: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// scanPriceAlert scans a single row into a PriceAlert.
func scanPriceAlert(row pgx.Row) (*domain.PriceAlert, error) {
	var a domain.PriceAlert
	var triggerPrice, athPrice, entryPrice string
	var severity string

	err := row.Scan(
		&a.AlertID,
		&a.TokenID,
		&a.TriggeredAt,
		&triggerPrice,
		&athPrice,
		&entryPrice,
		&a.DropFromATH,
		&a.DropFromEntry,
		&a.Tier,
		&severity,
		&a.Acknowledged,
	)
	if err != nil {
		return nil, err
	}

	if a.TriggerPrice, err = parseDecimal(triggerPrice); err != nil {
		return nil, err
	}
	if a.ATHPrice, err = parseDecimal(athPrice); err != nil {
		return nil, err
	}
	if a.EntryPrice, err = parseDecimal(entryPrice); err != nil {
		return nil, err
	}

	a.Severity = domain.Severity(severity)
	return &a, nil
}

// scanPriceAlerts scans multiple rows into a slice of PriceAlert.
func scanPriceAlerts(rows pgx.Rows) ([]*domain.PriceAlert, error) {
	var alerts []*domain.PriceAlert

	for rows.Next() {
		a, err := scanPriceAlert(rows)
		if err != nil {
			return nil, fmt.Errorf("scan price alert row: %w", err)
		}
		alerts = append(alerts, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate price alert rows: %w", err)
	}

	return alerts, nil
}

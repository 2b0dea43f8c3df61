// Package outbox persists one delivery row per lead and channel. The table is
// the observable outcome log of the notification fan-out.
package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Channel string

const (
	ChannelEmail         Channel = "email"
	ChannelPixel         Channel = "pixel"
	ChannelConversionAPI Channel = "conversion_api"
)

type Status string

const (
	StatusPending        Status = "pending"
	StatusEnqueued       Status = "enqueued"
	StatusProcessing     Status = "processing"
	StatusSucceeded      Status = "succeeded"
	StatusFailed         Status = "failed"
	StatusSkipped        Status = "skipped"
	errRepoNotConfigured        = "delivery repository not configured"
)

// Terminal reports whether no further attempt will be made.
func (s Status) Terminal() bool {
	return s == StatusSucceeded || s == StatusFailed || s == StatusSkipped
}

// ErrNotFound is returned when a delivery id does not exist.
var ErrNotFound = errors.New("delivery not found")

type Record struct {
	ID          uuid.UUID       `json:"id"`
	LeadID      uuid.UUID       `json:"leadId"`
	Channel     Channel         `json:"channel"`
	EventID     string          `json:"eventId"`
	Payload     json.RawMessage `json:"payload"`
	Status      Status          `json:"status"`
	Attempts    int             `json:"attempts"`
	LastError   *string         `json:"lastError,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
	CompletedAt *time.Time      `json:"completedAt,omitempty"`
}

type InsertParams struct {
	LeadID    uuid.UUID
	Channel   Channel
	EventID   string
	Payload   any
	Status    Status // optional; defaults to pending
	LastError *string
}

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const recordColumns = `id, lead_id, channel, event_id, payload, status, attempts, last_error,
	created_at, updated_at, completed_at`

func (r *Repository) Insert(ctx context.Context, p InsertParams) (uuid.UUID, error) {
	if r == nil || r.pool == nil {
		return uuid.Nil, errors.New(errRepoNotConfigured)
	}
	if p.LeadID == uuid.Nil {
		return uuid.Nil, fmt.Errorf("leadId is required")
	}
	if p.Channel == "" {
		return uuid.Nil, fmt.Errorf("channel is required")
	}
	status := p.Status
	if status == "" {
		status = StatusPending
	}
	payload := p.Payload
	if payload == nil {
		payload = struct{}{}
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return uuid.Nil, fmt.Errorf("marshal payload: %w", err)
	}

	var id uuid.UUID
	err = r.pool.QueryRow(ctx,
		`INSERT INTO lead_deliveries (lead_id, channel, event_id, payload, status, last_error, completed_at)
		 VALUES ($1, $2, $3, $4, $5, $6, CASE WHEN $7 THEN now() END)
		 RETURNING id`,
		p.LeadID, string(p.Channel), p.EventID, payloadBytes, string(status), p.LastError, status.Terminal(),
	).Scan(&id)
	if err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (Record, error) {
	if r == nil || r.pool == nil {
		return Record{}, errors.New(errRepoNotConfigured)
	}

	rec, err := scanRecord(r.pool.QueryRow(ctx,
		`SELECT `+recordColumns+` FROM lead_deliveries WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	return rec, err
}

// ListByLead returns every delivery of a lead, oldest first.
func (r *Repository) ListByLead(ctx context.Context, leadID uuid.UUID) ([]Record, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New(errRepoNotConfigured)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+recordColumns+` FROM lead_deliveries WHERE lead_id = $1 ORDER BY created_at ASC, channel ASC`,
		leadID,
	)
	if err != nil {
		return nil, err
	}
	return collectRecords(rows)
}

// ClaimPending moves up to limit pending rows to enqueued and returns them.
func (r *Repository) ClaimPending(ctx context.Context, limit int) ([]Record, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New(errRepoNotConfigured)
	}
	if limit < 1 {
		limit = 50
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	rows, err := tx.Query(ctx, `WITH cte AS (
		SELECT id
		FROM lead_deliveries
		WHERE status = 'pending'
		ORDER BY updated_at ASC
		LIMIT $1
		FOR UPDATE SKIP LOCKED
	)
	UPDATE lead_deliveries d
	SET status = 'enqueued', updated_at = now()
	FROM cte
	WHERE d.id = cte.id
	RETURNING d.id, d.lead_id, d.channel, d.event_id, d.payload, d.status, d.attempts, d.last_error,
		d.created_at, d.updated_at, d.completed_at`, limit)
	if err != nil {
		return nil, err
	}
	results, err := collectRecords(rows)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return results, nil
}

func (r *Repository) MarkPending(ctx context.Context, id uuid.UUID, lastError *string) error {
	return r.exec(ctx,
		`UPDATE lead_deliveries
		 SET status = 'pending', last_error = $2, updated_at = now()
		 WHERE id = $1`,
		id, lastError,
	)
}

func (r *Repository) MarkProcessing(ctx context.Context, id uuid.UUID) error {
	return r.exec(ctx,
		`UPDATE lead_deliveries
		 SET status = 'processing', attempts = attempts + 1, updated_at = now()
		 WHERE id = $1`,
		id,
	)
}

// MarkRetrying records a failed attempt that will be retried by the queue.
func (r *Repository) MarkRetrying(ctx context.Context, id uuid.UUID, lastError string) error {
	return r.exec(ctx,
		`UPDATE lead_deliveries
		 SET status = 'enqueued', last_error = $2, updated_at = now()
		 WHERE id = $1`,
		id, lastError,
	)
}

func (r *Repository) MarkSucceeded(ctx context.Context, id uuid.UUID) error {
	return r.exec(ctx,
		`UPDATE lead_deliveries
		 SET status = 'succeeded', last_error = NULL, updated_at = now(), completed_at = now()
		 WHERE id = $1`,
		id,
	)
}

func (r *Repository) MarkFailed(ctx context.Context, id uuid.UUID, lastError string) error {
	return r.exec(ctx,
		`UPDATE lead_deliveries
		 SET status = 'failed', last_error = $2, updated_at = now(), completed_at = now()
		 WHERE id = $1`,
		id, lastError,
	)
}

func (r *Repository) MarkSkipped(ctx context.Context, id uuid.UUID, reason string) error {
	return r.exec(ctx,
		`UPDATE lead_deliveries
		 SET status = 'skipped', last_error = $2, updated_at = now(), completed_at = now()
		 WHERE id = $1`,
		id, reason,
	)
}

func (r *Repository) exec(ctx context.Context, sql string, args ...any) error {
	if r == nil || r.pool == nil {
		return errors.New(errRepoNotConfigured)
	}
	_, err := r.pool.Exec(ctx, sql, args...)
	return err
}

func scanRecord(row pgx.Row) (Record, error) {
	var (
		rec     Record
		channel string
		status  string
	)
	err := row.Scan(&rec.ID, &rec.LeadID, &channel, &rec.EventID, &rec.Payload, &status, &rec.Attempts,
		&rec.LastError, &rec.CreatedAt, &rec.UpdatedAt, &rec.CompletedAt)
	if err != nil {
		return Record{}, err
	}
	rec.Channel = Channel(channel)
	rec.Status = Status(status)
	return rec, nil
}

func collectRecords(rows pgx.Rows) ([]Record, error) {
	defer rows.Close()

	results := make([]Record, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, rec)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return results, nil
}

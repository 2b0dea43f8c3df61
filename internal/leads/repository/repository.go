package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"talent_intake_backend/internal/leads/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	pgUniqueViolation = "23505"

	leadColumns = `id, child_name, first_name, last_name, gender, email, phone, post_code, age,
		image_url, image_key, status, created_at, updated_at`
)

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) ExistsByEmailOrPhone(ctx context.Context, email, phone string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM applications WHERE email = $1 OR phone = $2)
	`, email, phone).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check lead identity: %w", err)
	}
	return exists, nil
}

// Insert writes the full record in one statement. A unique violation on email
// or phone is reported as domain.ErrDuplicateLead.
func (r *Repository) Insert(ctx context.Context, lead domain.NewLead) (domain.Lead, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO applications (
			child_name, first_name, last_name, gender, email, phone, post_code, age, image_url, image_key
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING `+leadColumns,
		lead.ChildName, lead.FirstName, lead.LastName, lead.Gender, lead.Email, lead.Phone,
		lead.PostCode, lead.Age, lead.ImageURL, lead.ImageKey,
	)

	stored, err := scanLead(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return domain.Lead{}, domain.ErrDuplicateLead.WithOp("leads.Insert")
		}
		return domain.Lead{}, fmt.Errorf("insert lead: %w", err)
	}
	return stored, nil
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (domain.Lead, error) {
	lead, err := scanLead(r.pool.QueryRow(ctx, `SELECT `+leadColumns+` FROM applications WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Lead{}, domain.ErrNotFound
	}
	return lead, err
}

// GetByIDs returns the leads that exist, in the order their ids were given.
func (r *Repository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.Lead, error) {
	if len(ids) == 0 {
		return []domain.Lead{}, nil
	}

	rows, err := r.pool.Query(ctx, `SELECT `+leadColumns+` FROM applications WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("load leads by id: %w", err)
	}
	found, err := collectLeads(rows)
	if err != nil {
		return nil, err
	}

	byID := make(map[uuid.UUID]domain.Lead, len(found))
	for _, lead := range found {
		byID[lead.ID] = lead
	}
	ordered := make([]domain.Lead, 0, len(found))
	for _, id := range ids {
		if lead, ok := byID[id]; ok {
			ordered = append(ordered, lead)
			delete(byID, id)
		}
	}
	return ordered, nil
}

// List returns leads newest first, optionally bounded by creation date.
func (r *Repository) List(ctx context.Context, params ListParams) ([]domain.Lead, error) {
	var (
		where []string
		args  []interface{}
	)
	if !params.From.IsZero() {
		args = append(args, params.From)
		where = append(where, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if !params.To.IsZero() {
		args = append(args, params.To.AddDate(0, 0, 1))
		where = append(where, fmt.Sprintf("created_at < $%d", len(args)))
	}

	query := `SELECT ` + leadColumns + ` FROM applications`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list leads: %w", err)
	}
	return collectLeads(rows)
}

func (r *Repository) CountByStatus(ctx context.Context) (map[domain.Status]int, error) {
	rows, err := r.pool.Query(ctx, `SELECT status, COUNT(*) FROM applications GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("count leads: %w", err)
	}
	defer rows.Close()

	counts := make(map[domain.Status]int, len(domain.Statuses))
	for _, s := range domain.Statuses {
		counts[s] = 0
	}
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[domain.Status(status)] = n
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return counts, nil
}

func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.Status) (domain.Lead, error) {
	lead, err := scanLead(r.pool.QueryRow(ctx, `
		UPDATE applications SET status = $2 WHERE id = $1
		RETURNING `+leadColumns,
		id, string(status),
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Lead{}, domain.ErrNotFound
	}
	return lead, err
}

func scanLead(row pgx.Row) (domain.Lead, error) {
	var (
		lead   domain.Lead
		status string
	)
	err := row.Scan(
		&lead.ID, &lead.ChildName, &lead.FirstName, &lead.LastName, &lead.Gender, &lead.Email,
		&lead.Phone, &lead.PostCode, &lead.Age, &lead.ImageURL, &lead.ImageKey, &status,
		&lead.CreatedAt, &lead.UpdatedAt,
	)
	if err != nil {
		return domain.Lead{}, err
	}
	lead.Status = domain.Status(status)
	return lead, nil
}

func collectLeads(rows pgx.Rows) ([]domain.Lead, error) {
	defer rows.Close()

	items := make([]domain.Lead, 0)
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, lead)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return items, nil
}

package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/ticket-triage/internal/domain"
)

const ticketColumns = `id::text, title, description, category, priority, status, created_at`

type postgresTicketRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresTicketRepository instantiates the pgx backed repository.
func NewPostgresTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &postgresTicketRepository{pool: pool}
}

func (r *postgresTicketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (title, description, category, priority, status)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id::text, created_at`
	return r.pool.QueryRow(ctx, query,
		ticket.Title,
		ticket.Description,
		ticket.Category,
		ticket.Priority,
		ticket.Status,
	).Scan(&ticket.ID, &ticket.CreatedAt)
}

func (r *postgresTicketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id=$1`
	ticket, err := scanTicket(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrTicketNotFound
	}
	return ticket, err
}

func (r *postgresTicketRepository) List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.Category != nil {
		args = append(args, *filter.Category)
		clauses = append(clauses, fmt.Sprintf("category=$%d", len(args)))
	}
	if filter.Priority != nil {
		args = append(args, *filter.Priority)
		clauses = append(clauses, fmt.Sprintf("priority=$%d", len(args)))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		clauses = append(clauses, fmt.Sprintf("status=$%d", len(args)))
	}
	if filter.SearchTerm != nil && strings.TrimSpace(*filter.SearchTerm) != "" {
		search := "%" + strings.ToLower(strings.TrimSpace(*filter.SearchTerm)) + "%"
		args = append(args, search)
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf("(LOWER(title) LIKE %s OR LOWER(description) LIKE %s)", placeholder, placeholder))
	}

	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE %s ORDER BY created_at DESC, id DESC`,
		ticketColumns, strings.Join(clauses, " AND "))
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", filter.Offset)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.Ticket{}
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *ticket)
	}
	return result, rows.Err()
}

func (r *postgresTicketRepository) ApplyPatch(ctx context.Context, id string, patch domain.TicketPatch) (*domain.Ticket, *domain.Ticket, error) {
	// prev locks the row so the returned "before" values are the ones this
	// statement actually overwrote.
	const query = `
        WITH prev AS (
            SELECT id, category, priority, status FROM tickets WHERE id=$4 FOR UPDATE
        )
        UPDATE tickets t SET
            status   = COALESCE($1, t.status),
            category = COALESCE($2, t.category),
            priority = COALESCE($3, t.priority)
        FROM prev
        WHERE t.id = prev.id
        RETURNING t.id::text, t.title, t.description, t.category, t.priority, t.status, t.created_at,
                  prev.category, prev.priority, prev.status`

	var after domain.Ticket
	var before domain.Ticket
	err := r.pool.QueryRow(ctx, query,
		nullableString(patch.Status),
		nullableString(patch.Category),
		nullableString(patch.Priority),
		id,
	).Scan(
		&after.ID,
		&after.Title,
		&after.Description,
		&after.Category,
		&after.Priority,
		&after.Status,
		&after.CreatedAt,
		&before.Category,
		&before.Priority,
		&before.Status,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil, domain.ErrTicketNotFound
	}
	if err != nil {
		return nil, nil, err
	}
	before.ID = after.ID
	before.Title = after.Title
	before.Description = after.Description
	before.CreatedAt = after.CreatedAt
	return &before, &after, nil
}

func (r *postgresTicketRepository) Aggregate(ctx context.Context) (TicketAggregate, error) {
	const query = `
        SELECT COUNT(*),
               COUNT(*) FILTER (WHERE status = $1),
               MIN(created_at),
               MAX(created_at)
        FROM tickets`
	var agg TicketAggregate
	err := r.pool.QueryRow(ctx, query, domain.TicketStatusOpen).Scan(
		&agg.Total,
		&agg.Open,
		&agg.FirstCreatedAt,
		&agg.LastCreatedAt,
	)
	return agg, err
}

func (r *postgresTicketRepository) CountByPriority(ctx context.Context) (map[domain.TicketPriority]int64, error) {
	values := domain.Priorities()
	counts, err := r.countEach(ctx, "priority", len(values), func(i int) any { return values[i] })
	if err != nil {
		return nil, err
	}
	out := make(map[domain.TicketPriority]int64, len(values))
	for i, p := range values {
		out[p] = counts[i]
	}
	return out, nil
}

func (r *postgresTicketRepository) CountByCategory(ctx context.Context) (map[domain.TicketCategory]int64, error) {
	values := domain.Categories()
	counts, err := r.countEach(ctx, "category", len(values), func(i int) any { return values[i] })
	if err != nil {
		return nil, err
	}
	out := make(map[domain.TicketCategory]int64, len(values))
	for i, c := range values {
		out[c] = counts[i]
	}
	return out, nil
}

// countEach sends one COUNT per vocabulary value as a single pgx batch.
func (r *postgresTicketRepository) countEach(ctx context.Context, column string, n int, value func(int) any) ([]int64, error) {
	query := fmt.Sprintf(`SELECT COUNT(*) FROM tickets WHERE %s = $1`, column)
	batch := &pgx.Batch{}
	for i := 0; i < n; i++ {
		batch.Queue(query, value(i))
	}

	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()

	counts := make([]int64, n)
	for i := 0; i < n; i++ {
		if err := results.QueryRow().Scan(&counts[i]); err != nil {
			return nil, fmt.Errorf("count %s: %w", column, err)
		}
	}
	return counts, nil
}

func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	var ticket domain.Ticket
	if err := row.Scan(
		&ticket.ID,
		&ticket.Title,
		&ticket.Description,
		&ticket.Category,
		&ticket.Priority,
		&ticket.Status,
		&ticket.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func nullableString[T ~string](value *T) *string {
	if value == nil {
		return nil
	}
	s := string(*value)
	return &s
}

package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"clinic-api/internal/database"
	"clinic-api/internal/model"
)

type AuditRepository struct {
	db *database.DB
}

func NewAuditRepository(db *database.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) Insert(ctx context.Context, entry model.AuditEntry) error {
	_, err := r.db.Conn(ctx).Exec(ctx,
		`INSERT INTO audit_entries
		 (action, occurred_at, actor_id, actor_username, actor_role, actor_ip, status, resource, error)
		 VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), NULLIF($6, ''), $7, NULLIF($8, ''), NULLIF($9, ''))`,
		entry.Action, entry.OccurredAt,
		entry.Actor.UserID, entry.Actor.Username, string(entry.Actor.Role), entry.Actor.IP,
		entry.Status, entry.Resource, entry.Error)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// List returns one page of entries, newest first, plus the total matching count.
func (r *AuditRepository) List(ctx context.Context, query model.AuditQuery) ([]model.AuditEntry, int, error) {
	where := make([]string, 0, 5)
	args := make([]any, 0, 7)
	argIdx := 1

	if query.Action != "" {
		where = append(where, fmt.Sprintf("lower(action) = lower($%d)", argIdx))
		args = append(args, query.Action)
		argIdx++
	}
	if query.ActorID != nil {
		where = append(where, fmt.Sprintf("actor_id = $%d", argIdx))
		args = append(args, *query.ActorID)
		argIdx++
	}
	if query.Status != "" {
		where = append(where, fmt.Sprintf("lower(status) = lower($%d)", argIdx))
		args = append(args, query.Status)
		argIdx++
	}
	if query.From != nil {
		where = append(where, fmt.Sprintf("occurred_at >= $%d", argIdx))
		args = append(args, *query.From)
		argIdx++
	}
	if query.To != nil {
		where = append(where, fmt.Sprintf("occurred_at <= $%d", argIdx))
		args = append(args, *query.To)
		argIdx++
	}

	whereClause := ""
	if len(where) > 0 {
		whereClause = "WHERE " + strings.Join(where, " AND ")
	}

	conn := r.db.Conn(ctx)

	var total int
	if err := conn.QueryRow(ctx, "SELECT COUNT(*) FROM audit_entries "+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count audit entries: %w", err)
	}

	offset := (query.Page - 1) * query.Limit
	dataQuery := fmt.Sprintf(
		`SELECT action, occurred_at, actor_id, COALESCE(actor_username, ''), COALESCE(actor_role, ''),
		        COALESCE(actor_ip, ''), status, COALESCE(resource, ''), COALESCE(error, '')
		 FROM audit_entries %s
		 ORDER BY occurred_at DESC, id DESC
		 LIMIT $%d OFFSET $%d`, whereClause, argIdx, argIdx+1)
	args = append(args, query.Limit, offset)

	rows, err := conn.Query(ctx, dataQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query audit entries: %w", err)
	}

	entries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.AuditEntry, error) {
		var e model.AuditEntry
		var role string
		if err := row.Scan(&e.Action, &e.OccurredAt, &e.Actor.UserID, &e.Actor.Username, &role,
			&e.Actor.IP, &e.Status, &e.Resource, &e.Error); err != nil {
			return model.AuditEntry{}, err
		}
		e.Actor.Role = model.Role(role)
		e.OccurredAt = e.OccurredAt.UTC()
		return e, nil
	})
	if err != nil {
		return nil, 0, fmt.Errorf("scan audit entries: %w", err)
	}

	return entries, total, nil
}

package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"clinic-api/internal/model"
	"clinic-api/pkg/apierror"
)

type auditStore interface {
	Insert(ctx context.Context, entry model.AuditEntry) error
	List(ctx context.Context, query model.AuditQuery) ([]model.AuditEntry, int, error)
}

type auditCounter interface {
	ObserveAudit(action string, status string)
}

type AuditService struct {
	store   auditStore
	counter auditCounter
	now     func() time.Time
}

// NewAuditService builds the audit trail. counter may be nil.
func NewAuditService(store auditStore, counter auditCounter) *AuditService {
	return &AuditService{store: store, counter: counter, now: func() time.Time { return time.Now().UTC() }}
}

// Log records an audit entry. Failures are logged and swallowed so that the
// audited operation never fails because of its audit trail.
func (s *AuditService) Log(ctx context.Context, action string, actor model.AuditActor, status string, resource string, errText string) {
	if s == nil {
		return
	}
	if s.counter != nil {
		s.counter.ObserveAudit(action, status)
	}
	if s.store == nil {
		return
	}

	entry := model.AuditEntry{
		Action:     action,
		OccurredAt: s.now(),
		Actor:      actor,
		Status:     status,
		Resource:   resource,
		Error:      errText,
	}

	if err := s.store.Insert(context.WithoutCancel(ctx), entry); err != nil {
		slog.Warn("audit write failed", "action", action, "status", status, "error", err)
	}
}

func (s *AuditService) Query(ctx context.Context, query model.AuditQuery) (model.AuditListData, error) {
	if query.Page < 1 {
		query.Page = 1
	}
	if query.Limit <= 0 {
		query.Limit = 50
	}
	if query.Limit > 200 {
		query.Limit = 200
	}

	query.Action = strings.ToLower(strings.TrimSpace(query.Action))
	query.Status = strings.ToLower(strings.TrimSpace(query.Status))

	if query.From != nil && query.To != nil && query.From.After(*query.To) {
		return model.AuditListData{}, apierror.Validation("invalid time range",
			apierror.FieldError{Field: "from", Message: "must not be after 'to'"})
	}

	items, total, err := s.store.List(ctx, query)
	if err != nil {
		return model.AuditListData{}, err
	}
	if items == nil {
		items = []model.AuditEntry{}
	}

	return model.AuditListData{Items: items, Meta: model.NewMeta(query.Page, query.Limit, total)}, nil
}

// ParseAuditTime accepts RFC 3339 timestamps with or without fractional seconds.
func ParseAuditTime(raw string) (time.Time, error) {
	if value, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return value.UTC(), nil
	}

	value, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, err
	}

	return value.UTC(), nil
}

package ports

import (
	"context"

	"github.com/threadworks/order-tracking/internal/core/domain"
)

// AuditRepository persists auth audit events.
type AuditRepository interface {
	Insert(ctx context.Context, event *domain.AuthEvent) error
}

// AuditService processes a single auth audit event.
type AuditService interface {
	Record(ctx context.Context, event domain.AuthEvent) error
}

package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/threadworks/order-tracking/internal/core/domain"
	"github.com/threadworks/order-tracking/internal/core/ports"
)

type auditService struct {
	repo ports.AuditRepository
	log  zerolog.Logger
}

// NewAuditService returns an AuditService that persists every event it is given.
func NewAuditService(repo ports.AuditRepository, log zerolog.Logger) ports.AuditService {
	return &auditService{repo: repo, log: log}
}

// Record stamps and persists a single auth event.
func (s *auditService) Record(ctx context.Context, event domain.AuthEvent) error {
	if event.Type == "" {
		return fmt.Errorf("record auth event: %w: missing type", domain.ErrValidation)
	}
	if event.At.IsZero() {
		event.At = time.Now().UTC()
	}
	if event.Outcome == "" {
		event.Outcome = "ok"
	}

	if err := s.repo.Insert(ctx, &event); err != nil {
		return fmt.Errorf("record auth event: %w", err)
	}

	s.log.Debug().
		Str("type", string(event.Type)).
		Str("account_id", event.AccountID).
		Str("outcome", event.Outcome).
		Msg("auth event recorded")
	return nil
}

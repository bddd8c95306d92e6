package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/forum-service/internal/events"
)

// AuditService writes security-relevant events to the log.
type AuditService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewAuditService creates the service.
func NewAuditService(dispatcher events.Dispatcher, logger *zap.Logger) *AuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditService{
		dispatcher: dispatcher,
		logger:     logger.Named("audit"),
	}
}

// RegisterHandlers subscribes to events.
func (a *AuditService) RegisterHandlers() {
	if a.dispatcher == nil {
		return
	}
	a.dispatcher.Subscribe(events.EventAccessDenied, a.handleAccessDenied)
	a.dispatcher.Subscribe(events.EventBanEnforced, a.handleBanEnforced)
	a.dispatcher.Subscribe(events.EventSessionIssued, a.record)
	a.dispatcher.Subscribe(events.EventRoleAssigned, a.record)
	a.dispatcher.Subscribe(events.EventRoleRevoked, a.record)
}

func (a *AuditService) handleAccessDenied(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.AccessDeniedPayload)
	if !ok {
		return a.record(ctx, event)
	}
	a.logger.Info(string(event.Type), append(a.fields(event),
		zap.String("gate", payload.Gate),
		zap.Int("status", payload.Status),
		zap.String("path", payload.Path),
	)...)
	return nil
}

func (a *AuditService) handleBanEnforced(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.BanEnforcedPayload)
	if !ok {
		return a.record(ctx, event)
	}
	a.logger.Warn(string(event.Type), append(a.fields(event),
		zap.Time("banned_until", payload.BannedUntil),
		zap.String("path", payload.Path),
	)...)
	return nil
}

func (a *AuditService) record(_ context.Context, event events.Event) error {
	a.logger.Info(string(event.Type), append(a.fields(event), zap.Any("payload", event.Payload))...)
	return nil
}

func (a *AuditService) fields(event events.Event) []zap.Field {
	fields := []zap.Field{
		zap.String("event_id", event.ID),
		zap.Time("at", event.Timestamp),
	}
	if event.UserID != nil {
		fields = append(fields, zap.Int64("user_id", int64(*event.UserID)))
	}
	return fields
}

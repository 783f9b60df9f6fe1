package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/Cristi-la/EOL-Net/internal/events"
)

// AuditService writes an audit record for every token, user and catalog change.
type AuditService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewAuditService creates the service.
func NewAuditService(dispatcher events.Dispatcher, logger *zap.Logger) *AuditService {
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
	for _, eventType := range []events.EventType{
		events.EventTokenCreated,
		events.EventTokenRevoked,
		events.EventUserCreated,
		events.EventUserDeleted,
		events.EventEntityCreated,
		events.EventEntityUpdated,
		events.EventEntityDeleted,
	} {
		a.dispatcher.Subscribe(eventType, a.record)
	}
}

func (a *AuditService) record(_ context.Context, event events.Event) error {
	fields := []zap.Field{
		zap.String("event_id", event.ID),
		zap.String("event_type", string(event.Type)),
		zap.String("subject_id", event.SubjectID),
		zap.String("actor_kind", string(event.Actor.Kind)),
		zap.Time("at", event.Timestamp),
		zap.Any("payload", event.Payload),
	}
	if event.Actor.ID != "" {
		fields = append(fields, zap.String("actor_id", event.Actor.ID))
	}

	// Revocations are the security-relevant events; keep them visible at warn.
	if event.Type == events.EventTokenRevoked {
		a.logger.Warn("audit", fields...)
		return nil
	}
	a.logger.Info("audit", fields...)
	return nil
}

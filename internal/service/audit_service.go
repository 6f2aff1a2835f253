package service

import (
	"context"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/spec-kit/agservice/internal/config"
	"github.com/spec-kit/agservice/internal/events"
)

// AuditService writes the session audit trail from dispatched events.
type AuditService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.AuditConfig
}

// NewAuditService creates the service.
func NewAuditService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.AuditConfig) *AuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditService{
		dispatcher: dispatcher,
		logger:     logger.Named("audit"),
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to every session event.
func (a *AuditService) RegisterHandlers() {
	if a.dispatcher == nil || !a.cfg.Enabled {
		return
	}
	for _, eventType := range events.AllEventTypes {
		a.dispatcher.Subscribe(eventType, a.record)
	}
}

func (a *AuditService) record(_ context.Context, event events.Event) error {
	level := zapcore.InfoLevel
	if event.Type == events.EventLoginFailed {
		level = zapcore.WarnLevel
	}
	if ce := a.logger.Check(level, string(event.Type)); ce != nil {
		ce.Write(
			zap.String("event_id", event.ID),
			zap.String("subject", event.Subject),
			zap.Time("at", event.Timestamp),
			zap.Any("payload", event.Payload),
		)
	}
	return nil
}

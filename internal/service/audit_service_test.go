package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spec-kit/agservice/internal/config"
	"github.com/spec-kit/agservice/internal/events"
)

func TestAuditServiceRecordsSessionEvents(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	dispatcher := events.NewInMemoryDispatcher()
	NewAuditService(dispatcher, zap.New(core), config.AuditConfig{Enabled: true}).RegisterHandlers()

	ctx := context.Background()
	require.NoError(t, dispatcher.Publish(ctx, events.NewEvent(events.EventLoginSucceeded, "alice", time.Now(), nil)))
	require.NoError(t, dispatcher.Publish(ctx, events.NewEvent(events.EventLoginFailed, "mallory", time.Now(), events.LoginFailedPayload{Reason: "unknown_account"})))

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "login_succeeded", entries[0].Message)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, "login_failed", entries[1].Message)
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, "mallory", entries[1].ContextMap()["subject"])
}

func TestAuditServiceDisabled(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	dispatcher := events.NewInMemoryDispatcher()
	NewAuditService(dispatcher, zap.New(core), config.AuditConfig{Enabled: false}).RegisterHandlers()

	require.NoError(t, dispatcher.Publish(context.Background(), events.NewEvent(events.EventLoggedOut, "alice", time.Now(), nil)))
	assert.Zero(t, logs.Len())
}

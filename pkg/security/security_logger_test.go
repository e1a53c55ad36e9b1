package security_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/divyadhiman22/MyNotes/pkg/security"
)

func TestSecurityLoggerSeverity(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	audit := security.NewSecurityLoggerWith(zap.New(core), "mynotes", "test")
	ctx := context.Background()

	audit.Log(ctx, security.SecurityEvent{Event: security.EventLoginSuccess, SubjectType: "user_id", SubjectValue: "u1"})
	audit.LogLoginFailed(ctx, "ann@example.com", "10.0.0.1", "ua", "invalid_credentials")
	audit.Log(ctx, security.SecurityEvent{Event: security.EventCSRFRejected})

	entries := logs.All()
	require.Len(t, entries, 3)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, zapcore.ErrorLevel, entries[2].Level)
	assert.Equal(t, "HIGH", entries[2].ContextMap()["severity"])

	assert.NotContains(t, entries[1].ContextMap()["subject_value"], "ann@example.com")
	assert.True(t, security.IsHighOrAbove(security.EventLoginBlocked))
	assert.Equal(t, security.SeverityMEDIUM, security.GetSeverity("unknown"))

	var nilLogger *security.SecurityLogger
	assert.NotPanics(t, func() { nilLogger.Log(ctx, security.SecurityEvent{Event: security.EventLogout}) })
}

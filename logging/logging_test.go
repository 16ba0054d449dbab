package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew(t *testing.T) {
	logger, err := New("debug", "console")
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zap.DebugLevel))

	_, err = New("loud", "json")
	assert.Error(t, err)
}

func TestAudit(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	Audit(zap.New(core), "7", ActionDataExport, "exported 3 customers")

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "audit", entry.Message)
	fields := entry.ContextMap()
	assert.Equal(t, "7", fields["user_id"])
	assert.Equal(t, ActionDataExport, fields["action"])
	assert.Equal(t, "exported 3 customers", fields["details"])
}

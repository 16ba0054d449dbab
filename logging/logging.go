package logging

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Audit actions
const (
	ActionLogin         = "LOGIN"
	ActionLogout        = "LOGOUT"
	ActionRecordCreate  = "RECORD_CREATE"
	ActionRecordUpdate  = "RECORD_UPDATE"
	ActionRecordDelete  = "RECORD_DELETE"
	ActionDataExport    = "DATA_EXPORT"
	ActionHolidayToggle = "HOLIDAY_TOGGLE"
	ActionNoteUpdate    = "NOTE_UPDATE"
)

// New builds the console logger. format is "json" or "console".
func New(level, format string) (*zap.Logger, error) {
	var cfg zap.Config
	if format == "console" {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}

	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return logger, nil
}

// Audit records an operator action.
func Audit(logger *zap.Logger, userID, action, details string) {
	logger.Info("audit",
		zap.String("log_id", fmt.Sprintf("log-%d", time.Now().UnixNano())),
		zap.String("user_id", userID),
		zap.String("action", action),
		zap.String("details", details),
	)
}

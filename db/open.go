package db

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"transitdesk/config"
)

// Open builds the storage driver selected by cfg.Driver.
func Open(ctx context.Context, cfg config.StorageConfig, logger *zap.Logger) (Store, error) {
	switch cfg.Driver {
	case "file":
		return NewFileStore(cfg.FilePath)
	case "memory":
		logger.Warn("using in-memory storage; the session will not survive a restart")
		return NewMemoryStore(), nil
	case "firestore":
		return NewFirestoreStore(ctx, cfg.FirebaseProjectID, cfg.FirebaseCredentialsPath, cfg.FirestoreCollection, logger)
	case "redis":
		return NewRedisStore(ctx, cfg.RedisAddr, cfg.RedisDB, cfg.RedisKey)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"transitdesk/auth"
	"transitdesk/backend"
	"transitdesk/calendar"
	"transitdesk/config"
	"transitdesk/db"
	"transitdesk/listing"
	"transitdesk/logging"
	"transitdesk/mapview"
)

// app is the wired console: one session, one controller per resource.
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	store    db.Store
	provider *auth.Provider
	client   *backend.Client
	registry *listing.Registry
	calendar *calendar.Builder
	mapView  *mapview.View
}

func newApp(ctx context.Context, opts *rootOptions) (*app, error) {
	if _, err := config.LoadEnv(opts.envFiles); err != nil {
		return nil, withCode(exitConfig, fmt.Errorf("failed to load env files: %w", err))
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, withCode(exitConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, withCode(exitConfig, err)
	}

	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return nil, withCode(exitConfig, err)
	}

	store, err := db.Open(ctx, cfg.Storage, logger)
	if err != nil {
		_ = logger.Sync()
		return nil, withCode(exitStorage, err)
	}

	provider := auth.NewProvider(store, auth.NewTokenDecoder(cfg.Auth.JWTSecret), logger)
	provider.RestoreSession(ctx)

	client, err := backend.NewClient(cfg.Backend, provider, logger)
	if err != nil {
		_ = store.Close()
		return nil, withCode(exitConfig, err)
	}

	style, err := mapview.ParseStyle(cfg.Map.Style)
	if err != nil {
		_ = store.Close()
		return nil, withCode(exitConfig, err)
	}

	return &app{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		provider: provider,
		client:   client,
		registry: listing.NewRegistry(client, logger, cfg.Listing.ItemsPerPage, provider.UserID),
		calendar: calendar.NewBuilder(
			calendar.NewRemoteSource(cfg.Holidays.URL, cfg.Holidays.Timeout),
			calendar.NewOverrides(store),
			logger,
		),
		mapView: mapview.NewView(mapview.LatLng{Lat: cfg.Map.CenterLat, Lng: cfg.Map.CenterLng}, cfg.Map.Zoom, style),
	}, nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		a.logger.Warn("failed to close storage", zap.Error(err))
	}
	_ = a.logger.Sync()
}

// require applies the access decision to a CLI command.
func (a *app) require(roles ...auth.Role) (*auth.Session, error) {
	s := a.provider.Snapshot()
	switch auth.Decide(s, roles) {
	case auth.OutcomeRedirect:
		return nil, withCode(exitAuth, fmt.Errorf("not signed in: run transitdesk login"))
	case auth.OutcomeLoading:
		return nil, withCode(exitAuth, fmt.Errorf("session is still loading"))
	case auth.OutcomeDenied:
		return nil, withCode(exitAuth, fmt.Errorf("access denied for role %s", s.RoleID))
	default:
		return s, nil
	}
}

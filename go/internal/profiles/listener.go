package profiles

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/rs/zerolog/log"
)

type ListenerConfig struct {
	DatabaseURL      string        // Postgres DSN for LISTEN/NOTIFY
	NotifyChannel    string        // Channel name to LISTEN on
	FallbackInterval time.Duration // How often to reload every role in case a notification was missed
	PingInterval     time.Duration
}

func DefaultListenerConfig() ListenerConfig {
	return ListenerConfig{
		DatabaseURL:      "",
		NotifyChannel:    "profile_role_changed",
		FallbackInterval: 5 * time.Minute,
		PingInterval:     90 * time.Second,
	}
}

// Refresher is what the listener keeps up to date.
type Refresher interface {
	Refresh(ctx context.Context) error
	RefreshPlayer(ctx context.Context, playerID uuid.UUID) error
}

// Listener refreshes cached roles when the database announces a change. The notification
// payload is the player id whose role changed; an empty payload reloads everything.
type Listener struct {
	listener *pq.Listener
	cache    Refresher
	cfg      ListenerConfig
}

func NewListener(cache Refresher, cfg ListenerConfig) (*Listener, error) {
	l := pq.NewListener(
		cfg.DatabaseURL,
		10*time.Second,
		time.Minute,
		func(ev pq.ListenerEventType, err error) {
			if err != nil {
				log.Error().Err(err).Msg("listener event")
			}
		},
	)
	if err := l.Listen(cfg.NotifyChannel); err != nil {
		l.Close()
		return nil, fmt.Errorf("failed to listen to channel: %w", err)
	}

	log.Info().
		Str("channel", cfg.NotifyChannel).
		Msg("listening for role notifications")

	return &Listener{
		listener: l,
		cache:    cache,
		cfg:      cfg,
	}, nil
}

func (l *Listener) Start(ctx context.Context) error {
	log.Info().
		Str("channel", l.cfg.NotifyChannel).
		Dur("ping_interval", l.cfg.PingInterval).
		Dur("fallback_interval", l.cfg.FallbackInterval).
		Msg("role listener started")

	pingTicker := time.NewTicker(l.cfg.PingInterval)
	fallbackTicker := time.NewTicker(l.cfg.FallbackInterval)
	defer pingTicker.Stop()
	defer fallbackTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("role listener shutting down")
			return l.Stop()
		case note := <-l.listener.Notify:
			// A nil notification means the connection was re-established; anything may
			// have been missed while it was down.
			extra := ""
			if note != nil {
				extra = note.Extra
			}
			if err := handleNotification(ctx, l.cache, extra); err != nil {
				log.Error().Err(err).Msg("failed to handle role notification")
			}
		case <-fallbackTicker.C:
			if err := l.cache.Refresh(ctx); err != nil {
				log.Error().Err(err).Msg("failed to reload roles")
			}
		case <-pingTicker.C:
			if err := l.listener.Ping(); err != nil {
				log.Error().Err(err).Msg("failed to ping listener")
			}
		}
	}
}

func (l *Listener) Stop() error {
	return l.listener.Close()
}

func handleNotification(ctx context.Context, cache Refresher, extra string) error {
	if extra == "" {
		return cache.Refresh(ctx)
	}
	id, err := uuid.Parse(extra)
	if err != nil {
		return fmt.Errorf("invalid player ID in notification: %w", err)
	}
	return cache.RefreshPlayer(ctx, id)
}

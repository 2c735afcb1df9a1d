package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/mcdev12/arcade/go/internal/arcade/access"
	"github.com/mcdev12/arcade/go/internal/arcade/events"
	"github.com/mcdev12/arcade/go/internal/arcade/gateway"
	"github.com/mcdev12/arcade/go/internal/arcade/maps"
	"github.com/mcdev12/arcade/go/internal/arcade/publisher"
	"github.com/mcdev12/arcade/go/internal/arcade/room"
	"github.com/mcdev12/arcade/go/internal/config"
	"github.com/rs/zerolog/log"
)

type Services struct {
	Registry *room.Registry
	Gateway  *gateway.Service
	Catalog  *maps.Store

	// Set only when NATS is enabled.
	EventWorker  *publisher.Worker
	EventsHealth *publisher.HealthChecker

	closers []func()
}

// setupServices wires the room registry to its collaborators:
// catalog + roles → registry → event bus → gateway / JetStream.
func setupServices(ctx context.Context, cfg *config.Config) (*Services, error) {
	roomCfg, err := cfg.RoomConfig()
	if err != nil {
		return nil, err
	}

	catalog, err := loadCatalog(cfg.Maps.File)
	if err != nil {
		return nil, err
	}

	staff, err := cfg.StaffRoles()
	if err != nil {
		return nil, err
	}
	roles := access.Highest{staff}

	s := &Services{Catalog: catalog}

	if cfg.Database.Enabled {
		cache, closeDB, err := setupProfiles(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		roles = append(roles, cache)
		s.closers = append(s.closers, closeDB)
	}

	bus := events.NewBus()
	connections := gateway.NewConnectionManager(gateway.DefaultConnectionConfig())

	registry := room.NewRegistry(roomCfg, room.Dependencies{
		Catalog:  catalog,
		Roles:    roles,
		Notifier: connections,
		Kicker:   connections,
		Runner:   room.NopRunner{},
		Events:   bus,
	})
	s.Registry = registry

	gwCfg := gateway.DefaultConfig()
	gwCfg.UseJetStream = cfg.NATS.Enabled && cfg.NATS.GatewayFromStream
	gwCfg.JetStreamConfig.URL = cfg.NATS.URL
	gwCfg.JetStreamConfig.StreamName = cfg.NATS.StreamName
	gwCfg.JetStreamConfig.SubjectFilter = cfg.NATS.SubjectPrefix + ".>"

	if cfg.NATS.Enabled {
		if err := s.setupEventPublisher(ctx, cfg.NATS, bus); err != nil {
			s.Close()
			return nil, err
		}
	}

	// Registered after the publisher so rooms are stopped, and their removal published,
	// before the worker drains.
	s.closers = append(s.closers, registry.StopAll)

	gw, err := gateway.NewService(gwCfg, connections, registry, catalog)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to create room gateway: %w", err)
	}
	s.Gateway = gw
	bus.Subscribe(gw.Sink(publisher.DefaultConfig().Exclude...))

	go func() {
		if err := gw.Start(ctx); err != nil {
			log.Error().Err(err).Msg("room gateway failed")
		}
	}()

	log.Info().
		Int("maps", len(catalog.Names())).
		Bool("nats", cfg.NATS.Enabled).
		Bool("database", cfg.Database.Enabled).
		Msg("services ready")
	return s, nil
}

func (s *Services) setupEventPublisher(ctx context.Context, cfg config.NATSConfig, bus *events.Bus) error {
	jsCfg := publisher.DefaultJetStreamConfig()
	jsCfg.URL = cfg.URL
	jsCfg.StreamName = cfg.StreamName
	jsCfg.SubjectPrefix = cfg.SubjectPrefix

	js, err := publisher.NewJetStreamPublisher(jsCfg)
	if err != nil {
		return fmt.Errorf("failed to create event publisher: %w", err)
	}

	worker := publisher.NewWorker(js, publisher.DefaultConfig(), nil)
	// The worker outlives ctx so the events of shutdown itself are flushed by Stop.
	if err := worker.Start(context.WithoutCancel(ctx)); err != nil {
		js.Close()
		return err
	}
	bus.Subscribe(worker)

	s.EventWorker = worker
	s.EventsHealth = publisher.NewHealthChecker(worker, js, publisher.DefaultConfig().QueueSize/2)
	s.closers = append(s.closers, func() {
		if err := worker.Stop(); err != nil {
			log.Error().Err(err).Msg("failed to stop event worker")
		}
		if err := js.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close event publisher")
		}
	})
	return nil
}

// Close releases resources in reverse order of acquisition.
func (s *Services) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
}

func loadCatalog(path string) (*maps.Store, error) {
	catalog, err := maps.LoadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		log.Warn().Str("path", path).Msg("map catalog not found, starting with no maps")
		return maps.NewStore(), nil
	}
	if err != nil {
		return nil, err
	}
	return catalog, nil
}

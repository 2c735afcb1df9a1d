package gateway

import (
	"context"
	"fmt"
	"net/http"

	"github.com/mcdev12/arcade/go/internal/arcade/events"
	"github.com/rs/zerolog/log"
)

// Service is the room gateway: WebSocket subscriptions, the lobby API and, optionally, a
// JetStream consumer feeding subscribers.
type Service struct {
	connectionManager *ConnectionManager
	wsHandler         *WebSocketHandler
	roomHandler       *RoomHandler
	mapHandler        *MapHandler
	eventConsumer     *EventConsumer
}

type Config struct {
	ConnectionConfig ConnectionConfig
	JetStreamConfig  JetStreamConsumerConfig
	// UseJetStream routes room events to subscribers through the stream instead of in-process.
	UseJetStream bool
}

func DefaultConfig() Config {
	return Config{
		ConnectionConfig: DefaultConnectionConfig(),
		JetStreamConfig:  DefaultJetStreamConsumerConfig(),
	}
}

// NewService builds the gateway around connectionManager, which rooms also use as their
// notifier and kicker. A nil manager is created from config.
func NewService(config Config, connectionManager *ConnectionManager, rooms RoomDirectory, catalog MapCatalog) (*Service, error) {
	if connectionManager == nil {
		connectionManager = NewConnectionManager(config.ConnectionConfig)
	}

	s := &Service{
		connectionManager: connectionManager,
		wsHandler:         NewWebSocketHandler(connectionManager, rooms),
		roomHandler:       NewRoomHandler(rooms),
		mapHandler:        NewMapHandler(catalog, rooms),
	}

	if config.UseJetStream {
		eventConsumer, err := NewEventConsumer(connectionManager, config.JetStreamConfig)
		if err != nil {
			return nil, fmt.Errorf("failed to create event consumer: %w", err)
		}
		s.eventConsumer = eventConsumer
	}

	return s, nil
}

// Connections is the room.Notifier and room.Kicker backed by the live WebSocket connections.
func (s *Service) Connections() *ConnectionManager {
	return s.connectionManager
}

// Sink returns the sink rooms should publish to. When events arrive through JetStream only
// the types kept off the stream are delivered in-process.
func (s *Service) Sink(local ...events.EventType) events.Sink {
	if s.eventConsumer == nil {
		return s.connectionManager
	}
	keep := make(map[events.EventType]struct{}, len(local))
	for _, t := range local {
		keep[t] = struct{}{}
	}
	return events.Filter(s.connectionManager, func(t events.EventType) bool {
		_, ok := keep[t]
		return ok
	})
}

// Start runs the gateway until ctx is cancelled.
func (s *Service) Start(ctx context.Context) error {
	log.Info().Bool("jetstream", s.eventConsumer != nil).Msg("starting room gateway service")

	go s.connectionManager.Start(ctx)

	if s.eventConsumer != nil {
		go func() {
			if err := s.eventConsumer.Start(ctx); err != nil {
				log.Error().Err(err).Msg("event consumer failed")
			}
		}()
	}

	<-ctx.Done()

	log.Info().Msg("room gateway service shutting down")
	return s.Stop()
}

func (s *Service) Stop() error {
	if s.eventConsumer != nil {
		if err := s.eventConsumer.Stop(); err != nil {
			log.Error().Err(err).Msg("failed to stop event consumer")
		}
	}
	// Connection manager stops when its context is cancelled
	log.Info().Msg("room gateway service stopped")
	return nil
}

func (s *Service) RegisterRoutes(mux *http.ServeMux) {
	s.wsHandler.RegisterRoutes(mux)
	s.roomHandler.RegisterRoutes(mux)
	s.mapHandler.RegisterRoutes(mux)
	log.Info().Msg("room gateway routes registered")
}

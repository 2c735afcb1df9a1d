package publisher

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/arcade/go/internal/arcade/events"
	"github.com/rs/zerolog/log"
)

// EventPublisher delivers one room event to an external bus.
type EventPublisher interface {
	Publish(ctx context.Context, event events.RoomEvent) error
}

type Config struct {
	QueueSize      int
	MaxRetries     int
	RetryDelay     time.Duration
	PublishTimeout time.Duration
	// Exclude lists event types that are not forwarded. Timer ticks are local by default.
	Exclude []events.EventType
}

func DefaultConfig() Config {
	return Config{
		QueueSize:      1024,
		MaxRetries:     3,
		RetryDelay:     time.Second,
		PublishTimeout: 5 * time.Second,
		Exclude:        []events.EventType{events.EventTypeTimerTick},
	}
}

// Stats is a snapshot of the worker counters.
type Stats struct {
	Published     uint64    `json:"published"`
	Failed        uint64    `json:"failed"`
	Dropped       uint64    `json:"dropped"`
	Pending       int       `json:"pending"`
	LastPublished time.Time `json:"last_published"`
}

// Worker is an events.Sink that hands events to an EventPublisher on its own goroutine.
// Publish never blocks: when the queue is full the event is dropped and counted.
type Worker struct {
	publisher EventPublisher
	config    Config
	clock     clockwork.Clock
	exclude   map[events.EventType]struct{}
	queue     chan events.RoomEvent

	published atomic.Uint64
	failed    atomic.Uint64
	dropped   atomic.Uint64

	mu            sync.Mutex
	running       bool
	lastPublished time.Time
	stopChan      chan struct{}
	wg            sync.WaitGroup
}

func NewWorker(publisher EventPublisher, cfg Config, clock clockwork.Clock) *Worker {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultConfig().QueueSize
	}
	exclude := make(map[events.EventType]struct{}, len(cfg.Exclude))
	for _, t := range cfg.Exclude {
		exclude[t] = struct{}{}
	}
	return &Worker{
		publisher: publisher,
		config:    cfg,
		clock:     clock,
		exclude:   exclude,
		queue:     make(chan events.RoomEvent, cfg.QueueSize),
		stopChan:  make(chan struct{}),
	}
}

// Publish queues an event for delivery.
func (w *Worker) Publish(event events.RoomEvent) {
	if _, skip := w.exclude[event.Type]; skip {
		return
	}
	select {
	case w.queue <- event:
	default:
		w.dropped.Add(1)
		log.Warn().
			Int("room_id", event.RoomID).
			Str("event_type", string(event.Type)).
			Msg("publisher queue full, dropping event")
	}
}

func (w *Worker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("publisher worker already running")
	}
	w.running = true
	w.mu.Unlock()

	w.wg.Add(1)
	go w.run(ctx)

	log.Info().
		Int("queue_size", w.config.QueueSize).
		Int("max_retries", w.config.MaxRetries).
		Msg("publisher worker started")
	return nil
}

// Stop waits for the worker to flush what is already queued and exit.
func (w *Worker) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return fmt.Errorf("publisher worker not running")
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopChan)
	w.wg.Wait()

	log.Info().Uint64("published", w.published.Load()).Msg("publisher worker stopped")
	return nil
}

func (w *Worker) Running() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

func (w *Worker) run(ctx context.Context) {
	defer w.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopChan:
			w.drain()
			return
		case event := <-w.queue:
			w.deliver(ctx, event)
		}
	}
}

// drain publishes whatever is still queued, once each, without retries.
func (w *Worker) drain() {
	for {
		select {
		case event := <-w.queue:
			ctx, cancel := w.publishContext(context.Background())
			err := w.publisher.Publish(ctx, event)
			cancel()
			w.record(event, err)
		default:
			return
		}
	}
}

func (w *Worker) deliver(ctx context.Context, event events.RoomEvent) {
	err := w.publishWithRetry(ctx, event)
	w.record(event, err)
}

func (w *Worker) record(event events.RoomEvent, err error) {
	if err != nil {
		w.failed.Add(1)
		log.Error().
			Err(err).
			Str("event_id", event.ID).
			Int("room_id", event.RoomID).
			Str("event_type", string(event.Type)).
			Msg("failed to publish event")
		return
	}
	w.published.Add(1)
	w.mu.Lock()
	w.lastPublished = w.clock.Now()
	w.mu.Unlock()
}

func (w *Worker) publishContext(parent context.Context) (context.Context, context.CancelFunc) {
	if w.config.PublishTimeout <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, w.config.PublishTimeout)
}

func (w *Worker) publishWithRetry(ctx context.Context, event events.RoomEvent) error {
	var lastErr error

	for attempt := 0; attempt <= w.config.MaxRetries; attempt++ {
		if attempt > 0 && w.config.RetryDelay > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-w.clock.After(w.config.RetryDelay * time.Duration(attempt)):
			}
		}

		pctx, cancel := w.publishContext(ctx)
		err := w.publisher.Publish(pctx, event)
		cancel()
		if err == nil {
			return nil
		}

		lastErr = err
		log.Warn().
			Err(err).
			Str("event_id", event.ID).
			Int("attempt", attempt+1).
			Msg("failed to publish event, retrying")
	}

	return fmt.Errorf("failed after %d attempts: %w", w.config.MaxRetries+1, lastErr)
}

func (w *Worker) Stats() Stats {
	w.mu.Lock()
	last := w.lastPublished
	w.mu.Unlock()
	return Stats{
		Published:     w.published.Load(),
		Failed:        w.failed.Load(),
		Dropped:       w.dropped.Load(),
		Pending:       len(w.queue),
		LastPublished: last,
	}
}

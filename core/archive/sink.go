// Package archive persists activation, completion, failure and
// recovery events to a local SQLite database for later analysis. The
// sink is optional: writes are queued and flushed off the hot path,
// and any persistence failure logs a warning and moves on. A
// monitoring cycle never blocks on archive I/O.
package archive

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/adalundhe/vigil/core/events"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS events (
	id        TEXT PRIMARY KEY,
	kind      TEXT NOT NULL,
	source    TEXT NOT NULL,
	timestamp TEXT NOT NULL,
	payload   TEXT
);
CREATE INDEX IF NOT EXISTS idx_events_kind ON events(kind);
CREATE INDEX IF NOT EXISTS idx_events_timestamp ON events(timestamp);
`

const defaultQueueSize = 256

// Sink archives events to SQLite through an asynchronous writer.
type Sink struct {
	db      *sql.DB
	logger  *slog.Logger
	queue   chan *events.Event
	closed  atomic.Bool
	dropped atomic.Int64
	wg      sync.WaitGroup
}

// Open creates or opens the archive database and starts the writer.
func Open(path string, logger *slog.Logger) (*Sink, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("archive schema: %w", err)
	}

	sink := &Sink{
		db:     db,
		logger: logger,
		queue:  make(chan *events.Event, defaultQueueSize),
	}

	sink.wg.Add(1)
	go sink.writeLoop()

	return sink, nil
}

// Enqueue hands an event to the writer without blocking. Events
// beyond the queue capacity are dropped with a warning; archival is
// best-effort by design.
func (s *Sink) Enqueue(event *events.Event) {
	if s.closed.Load() {
		return
	}

	select {
	case s.queue <- event:
	default:
		if s.dropped.Add(1)%100 == 1 {
			s.logger.Warn("archive queue full, dropping events",
				"dropped_total", s.dropped.Load(),
			)
		}
	}
}

// Dropped returns how many events were discarded because the queue
// was full.
func (s *Sink) Dropped() int64 {
	return s.dropped.Load()
}

func (s *Sink) writeLoop() {
	defer s.wg.Done()

	for event := range s.queue {
		if err := s.insert(event); err != nil {
			s.logger.Warn("archive write failed", "kind", event.Kind, "error", err)
		}
	}
}

func (s *Sink) insert(event *events.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	_, err = s.db.Exec(
		`INSERT OR IGNORE INTO events (id, kind, source, timestamp, payload) VALUES (?, ?, ?, ?, ?)`,
		event.ID,
		event.Kind.String(),
		event.Source,
		event.Timestamp.UTC().Format("2006-01-02T15:04:05.000Z"),
		string(payload),
	)
	return err
}

// CountByKind returns how many events of a kind have been archived.
func (s *Sink) CountByKind(kind events.EventKind) (int64, error) {
	var count int64
	err := s.db.QueryRow(`SELECT COUNT(*) FROM events WHERE kind = ?`, kind.String()).Scan(&count)
	return count, err
}

// Close drains the queue and closes the database.
func (s *Sink) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}

	close(s.queue)
	s.wg.Wait()
	return s.db.Close()
}

// =============================================================================
// Bus wiring
// =============================================================================

// sinkSubscriber forwards archival-worthy events to the sink.
type sinkSubscriber struct {
	sink *Sink
}

// SubscribeSink wires the sink to the activation, completion, failure
// and recovery signals on the bus.
func SubscribeSink(bus *events.Bus, sink *Sink) {
	bus.Subscribe(&sinkSubscriber{sink: sink})
}

func (s *sinkSubscriber) ID() string {
	return "archive-sink"
}

func (s *sinkSubscriber) Kinds() []events.EventKind {
	return []events.EventKind{
		events.KindAgentActivated,
		events.KindAgentsCompleted,
		events.KindAgentsFailed,
		events.KindRecoveryComplete,
	}
}

func (s *sinkSubscriber) OnEvent(event *events.Event) error {
	s.sink.Enqueue(event)
	return nil
}

package services

import (
	"log"
	"sync"
	"time"

	"main/model"
	"main/utils"
)

// AuditWriter is the storage side of the sink, satisfied by
// repository.AuditRepo.
type AuditWriter interface {
	InsertEvent(event *model.AuditEvent) error
}

// AuditSink is a best-effort outbound channel for audit events. Record never
// blocks and never fails the caller: a full queue drops the event, and write
// failures in the drain goroutine are logged and swallowed.
type AuditSink struct {
	writer    AuditWriter
	queue     chan *model.AuditEvent
	done      chan struct{}
	closeOnce sync.Once
}

// NewAuditSink starts the drain goroutine. queueSize bounds how many events
// may be in flight before new ones are dropped.
func NewAuditSink(writer AuditWriter, queueSize int) *AuditSink {
	if queueSize <= 0 {
		queueSize = 256
	}
	sink := &AuditSink{
		writer: writer,
		queue:  make(chan *model.AuditEvent, queueSize),
		done:   make(chan struct{}),
	}
	go sink.drain()
	return sink
}

// Record enqueues an event, fire-and-forget.
func (s *AuditSink) Record(kind, actorID, detail string) {
	if s == nil {
		return
	}
	event := &model.AuditEvent{
		Kind:      kind,
		ActorID:   actorID,
		Timestamp: time.Now(),
		Detail:    detail,
	}
	select {
	case s.queue <- event:
	default:
		utils.AuditEventsDropped.Inc()
		log.Printf("Warning: audit queue full, dropped %s event", kind)
	}
}

func (s *AuditSink) drain() {
	defer close(s.done)
	for event := range s.queue {
		if err := s.writer.InsertEvent(event); err != nil {
			log.Printf("Warning: failed to write audit event: %v", err)
		}
	}
}

// Close stops accepting events and waits for the queue to flush.
func (s *AuditSink) Close() {
	s.closeOnce.Do(func() {
		close(s.queue)
		<-s.done
	})
}

package observer

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// PhotoEvent represents an upload or analysis event
type PhotoEvent struct {
	EventType    EventType     `json:"event_type"`
	Timestamp    time.Time     `json:"timestamp"`
	Filename     string        `json:"filename,omitempty"`
	Duration     time.Duration `json:"duration"`
	Success      bool          `json:"success"`
	ErrorMessage string        `json:"error_message,omitempty"`

	// Analysis fields
	Score          float64 `json:"score,omitempty"`
	QualityLevel   string  `json:"quality_level,omitempty"`
	FallbackReason string  `json:"fallback_reason,omitempty"`
	CacheHit       bool    `json:"cache_hit,omitempty"`

	// Upload and batch fields
	Backend string `json:"backend,omitempty"`
	Bytes   int64  `json:"bytes,omitempty"`
	Count   int    `json:"count,omitempty"`

	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// EventType represents the type of photo event
type EventType string

const (
	// UploadCompleted when a photo has been stored
	UploadCompleted EventType = "upload_completed"
	// UploadFailed when an upload is rejected or cannot be stored
	UploadFailed EventType = "upload_failed"
	// AnalysisCompleted when one photo of a batch has an outcome
	AnalysisCompleted EventType = "analysis_completed"
	// PhotoSkipped when a requested photo does not exist
	PhotoSkipped EventType = "photo_skipped"
	// BatchCompleted when a whole batch has been ranked
	BatchCompleted EventType = "batch_completed"
	// BatchFailed when a batch is abandoned
	BatchFailed EventType = "batch_failed"
)

// Observer defines the interface for event observers
type Observer interface {
	OnEvent(ctx context.Context, event PhotoEvent)
	GetObserverName() string
}

// Subject defines the interface for event publishers
type Subject interface {
	Subscribe(observer Observer)
	Unsubscribe(observer Observer)
	NotifyObservers(ctx context.Context, event PhotoEvent)
}

// LoggingObserver logs photo events
type LoggingObserver struct {
	logger *logrus.Logger
}

// NewLoggingObserver creates a new logging observer
func NewLoggingObserver(logger *logrus.Logger) Observer {
	return &LoggingObserver{
		logger: logger,
	}
}

// OnEvent handles photo events by logging them
func (o *LoggingObserver) OnEvent(ctx context.Context, event PhotoEvent) {
	fields := logrus.Fields{
		"event_type":  event.EventType,
		"duration_ms": event.Duration.Milliseconds(),
		"success":     event.Success,
	}
	if event.Filename != "" {
		fields["filename"] = event.Filename
	}
	if event.ErrorMessage != "" {
		fields["error"] = event.ErrorMessage
	}

	for k, v := range event.Metadata {
		fields[k] = v
	}

	entry := o.logger.WithFields(fields)
	switch event.EventType {
	case UploadCompleted:
		entry.WithFields(logrus.Fields{
			"backend": event.Backend,
			"bytes":   event.Bytes,
		}).Info("Photo uploaded")
	case UploadFailed:
		entry.Warn("Photo upload failed")
	case AnalysisCompleted:
		entry = entry.WithFields(logrus.Fields{
			"score":     event.Score,
			"quality":   event.QualityLevel,
			"cache_hit": event.CacheHit,
		})
		if event.FallbackReason != "" {
			entry.WithField("fallback_reason", event.FallbackReason).Warn("Photo scored with fallback")
			return
		}
		entry.Debug("Photo scored")
	case PhotoSkipped:
		entry.Info("Requested photo not found, skipping")
	case BatchCompleted:
		entry.WithField("count", event.Count).Info("Batch analysis completed")
	case BatchFailed:
		entry.WithField("count", event.Count).Error("Batch analysis failed")
	default:
		entry.Info("Photo event occurred")
	}
}

// GetObserverName returns the observer name
func (o *LoggingObserver) GetObserverName() string {
	return "logging_observer"
}

// EventPublisher implements the Subject interface
type EventPublisher struct {
	mu        sync.RWMutex
	observers []Observer
	pending   sync.WaitGroup
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher() *EventPublisher {
	return &EventPublisher{
		observers: make([]Observer, 0),
	}
}

// Subscribe adds an observer
func (p *EventPublisher) Subscribe(observer Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.observers = append(p.observers, observer)
}

// Unsubscribe removes an observer
func (p *EventPublisher) Unsubscribe(observer Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i, obs := range p.observers {
		if obs.GetObserverName() == observer.GetObserverName() {
			p.observers = append(p.observers[:i], p.observers[i+1:]...)
			break
		}
	}
}

// NotifyObservers notifies all observers of an event
func (p *EventPublisher) NotifyObservers(ctx context.Context, event PhotoEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	p.mu.RLock()
	observers := make([]Observer, len(p.observers))
	copy(observers, p.observers)
	p.mu.RUnlock()

	// Request contexts end before slow observers do
	ctx = context.WithoutCancel(ctx)

	// Notify observers concurrently
	for _, observer := range observers {
		p.pending.Add(1)
		go func(obs Observer) {
			defer p.pending.Done()
			defer func() {
				if r := recover(); r != nil {
					// Log panic but don't crash the application
					logrus.WithField("observer", obs.GetObserverName()).
						WithField("panic", r).
						Error("Observer panicked while handling event")
				}
			}()
			obs.OnEvent(ctx, event)
		}(observer)
	}
}

// Wait blocks until every notification sent so far has been handled
func (p *EventPublisher) Wait() {
	p.pending.Wait()
}

package observer

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "photo_curator"

// MetricsObserver turns photo events into Prometheus metrics
type MetricsObserver struct {
	uploads          *prometheus.CounterVec
	uploadBytes      prometheus.Histogram
	analyses         *prometheus.CounterVec
	analysisDuration prometheus.Histogram
	qualityLevels    *prometheus.CounterVec
	skipped          prometheus.Counter
	batches          *prometheus.CounterVec
	batchSize        prometheus.Histogram
}

// NewMetricsObserver creates the collectors and registers them with reg
func NewMetricsObserver(reg prometheus.Registerer) (*MetricsObserver, error) {
	o := &MetricsObserver{
		uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploads_total",
			Help:      "Uploads by storage backend and result.",
		}, []string{"backend", "result"}),
		uploadBytes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upload_size_bytes",
			Help:      "Size of stored uploads.",
			Buckets:   prometheus.ExponentialBuckets(64*1024, 2, 9),
		}),
		analyses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analyses_total",
			Help:      "Per-photo analysis outcomes.",
		}, []string{"outcome", "cache"}),
		analysisDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "analysis_duration_seconds",
			Help:      "Time to load and score one photo.",
			Buckets:   prometheus.DefBuckets,
		}),
		qualityLevels: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quality_level_total",
			Help:      "Scored photos by quality level.",
		}, []string{"level"}),
		skipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "photos_skipped_total",
			Help:      "Requested photos that did not exist.",
		}),
		batches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batches_total",
			Help:      "Batch analyses by result.",
		}, []string{"result"}),
		batchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_size",
			Help:      "Photos ranked per batch.",
			Buckets:   []float64{1, 2, 5, 10, 20, 50, 100},
		}),
	}

	for _, c := range []prometheus.Collector{
		o.uploads, o.uploadBytes, o.analyses, o.analysisDuration,
		o.qualityLevels, o.skipped, o.batches, o.batchSize,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// OnEvent handles photo events by updating metrics
func (o *MetricsObserver) OnEvent(ctx context.Context, event PhotoEvent) {
	switch event.EventType {
	case UploadCompleted:
		o.uploads.WithLabelValues(event.Backend, "stored").Inc()
		o.uploadBytes.Observe(float64(event.Bytes))
	case UploadFailed:
		o.uploads.WithLabelValues(event.Backend, "rejected").Inc()
	case AnalysisCompleted:
		outcome := "scored"
		if event.FallbackReason != "" {
			outcome = "fallback"
		}
		cache := "miss"
		if event.CacheHit {
			cache = "hit"
		}
		o.analyses.WithLabelValues(outcome, cache).Inc()
		o.analysisDuration.Observe(event.Duration.Seconds())
		if event.QualityLevel != "" {
			o.qualityLevels.WithLabelValues(event.QualityLevel).Inc()
		}
	case PhotoSkipped:
		o.skipped.Inc()
	case BatchCompleted:
		o.batches.WithLabelValues("completed").Inc()
		o.batchSize.Observe(float64(event.Count))
	case BatchFailed:
		o.batches.WithLabelValues("failed").Inc()
	}
}

// GetObserverName returns the observer name
func (o *MetricsObserver) GetObserverName() string {
	return "metrics_observer"
}

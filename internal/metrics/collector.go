package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	OutcomeSuccess    = "success"
	OutcomeRedirected = "redirected"
	OutcomeFailed     = "failed"
	// OutcomeInvalid is a local input rejection; no remote call was made.
	OutcomeInvalid    = "invalid"
)

var (
	generationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bizimage_generations_total",
			Help: "Generation attempts labeled by kind and outcome",
		},
		[]string{"kind", "outcome"},
	)
	generationDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bizimage_generation_duration_seconds",
			Help:    "Duration of remote generation calls in seconds",
			Buckets: []float64{1, 2.5, 5, 10, 20, 40, 80, 120},
		},
		[]string{"kind"},
	)
	imagesGeneratedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bizimage_images_generated_total",
			Help: "Images added to the history labeled by kind",
		},
		[]string{"kind"},
	)
	creditsDebitedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bizimage_credits_debited_total",
			Help: "Credits spent on successful generations",
		},
	)
	creditsPurchasedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bizimage_credits_purchased_total",
			Help: "Credits granted by confirmed purchases labeled by package",
		},
		[]string{"package"},
	)
	imagesDeletedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bizimage_images_deleted_total",
			Help: "History records removed by the user",
		},
	)
	creditBalance = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "bizimage_credit_balance",
			Help: "Current account credit balance",
		},
	)
	persistFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bizimage_persist_failures_total",
			Help: "Snapshot writes that failed labeled by blob",
		},
		[]string{"blob"},
	)
)

// RecordGeneration counts one generation attempt. duration is zero when no
// remote call was made.
func RecordGeneration(kind, outcome string, duration time.Duration) {
	if kind == "" {
		kind = "unknown"
	}
	if outcome == "" {
		outcome = "unknown"
	}

	generationsTotal.WithLabelValues(kind, outcome).Inc()
	if duration > 0 {
		generationDurationSeconds.WithLabelValues(kind).Observe(duration.Seconds())
	}
}

func RecordImagesGenerated(kind string, count int) {
	if count <= 0 {
		return
	}
	imagesGeneratedTotal.WithLabelValues(kind).Add(float64(count))
}

func RecordDebit(credits int) {
	if credits > 0 {
		creditsDebitedTotal.Add(float64(credits))
	}
}

func RecordPurchase(packageID string, credits int) {
	if packageID == "" {
		packageID = "unknown"
	}
	if credits > 0 {
		creditsPurchasedTotal.WithLabelValues(packageID).Add(float64(credits))
	}
}

func RecordDeletion() {
	imagesDeletedTotal.Inc()
}

func SetCreditBalance(credits int) {
	creditBalance.Set(float64(credits))
}

func RecordPersistFailure(blob string) {
	persistFailuresTotal.WithLabelValues(blob).Inc()
}

package scene

import (
	"github.com/chazu/integral/pkg/grid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	modeLabel      = "mode"
	errorTypeLabel = "error_type"
	sessionLabel   = "session_id"
)

var (
	boxesGenerated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "integral_boxes_generated_total",
		Help: "The total number of generated boxes.",
	}, []string{modeLabel})

	layersGenerated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "integral_layers_generated_total",
		Help: "The total number of generated layers.",
	}, []string{modeLabel})

	layerMemoHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "integral_layer_memo_hits_total",
		Help: "The total number of layer requests served from already materialized geometry.",
	})

	generationFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "integral_generation_failures_total",
		Help: "The total number of rejected configurations.",
	}, []string{errorTypeLabel})

	visibleLayers = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "integral_visible_layers",
		Help: "The number of visible layers.",
	}, []string{sessionLabel})
)

func layerMode(p grid.LevelPair) string {
	if p.Incremental() {
		return "incremental"
	}
	return "full"
}

func instrumentLayer(p grid.LevelPair, boxes int) {
	mode := layerMode(p)
	layersGenerated.
		With(prometheus.Labels{modeLabel: mode}).
		Inc()
	boxesGenerated.
		With(prometheus.Labels{modeLabel: mode}).
		Add(float64(boxes))
}

func instrumentMemoHit() {
	layerMemoHits.Inc()
}

func instrumentFailure(errType string) {
	if errType == "" {
		errType = "unknown"
	}
	generationFailures.
		With(prometheus.Labels{errorTypeLabel: errType}).
		Inc()
}

func instrumentVisibleLayers(sessionID string, n int) {
	visibleLayers.
		With(prometheus.Labels{sessionLabel: sessionID}).
		Set(float64(n))
}

func instrumentCloseSession(sessionID string) {
	visibleLayers.Delete(prometheus.Labels{sessionLabel: sessionID})
}

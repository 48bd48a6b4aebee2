package metrics

import (
    "net/http"
    "time"

    "github.com/prometheus/client_golang/prometheus"
    "github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
    documentsLoaded = prometheus.NewCounterVec(
        prometheus.CounterOpts{
            Namespace: "pdfsigner",
            Name:      "documents_loaded_total",
            Help:      "Document loads by source (upload, restore) and result",
        },
        []string{"source", "result"},
    )

    renderLatency = prometheus.NewHistogramVec(
        prometheus.HistogramOpts{
            Namespace: "pdfsigner",
            Name:      "render_duration_seconds",
            Help:      "Duration of full document renders by source",
            Buckets:   prometheus.DefBuckets,
        },
        []string{"source"},
    )

    pagesRendered = prometheus.NewCounter(
        prometheus.CounterOpts{
            Namespace: "pdfsigner",
            Name:      "pages_rendered_total",
            Help:      "Total pages rendered (main and thumbnail surface pairs)",
        },
    )

    signaturesCommitted = prometheus.NewCounterVec(
        prometheus.CounterOpts{
            Namespace: "pdfsigner",
            Name:      "signatures_committed_total",
            Help:      "Signatures dropped onto a page, by acquisition mode",
        },
        []string{"mode"},
    )

    flattenLatency = prometheus.NewHistogramVec(
        prometheus.HistogramOpts{
            Namespace: "pdfsigner",
            Name:      "flatten_duration_seconds",
            Help:      "Duration of flatten runs by result",
            Buckets:   prometheus.DefBuckets,
        },
        []string{"result"},
    )

    superseded = prometheus.NewCounterVec(
        prometheus.CounterOpts{
            Namespace: "pdfsigner",
            Name:      "superseded_total",
            Help:      "Renders and flattens discarded because a newer load or reset won",
        },
        []string{"op"},
    )

    documentPages = prometheus.NewGauge(
        prometheus.GaugeOpts{
            Namespace: "pdfsigner",
            Name:      "document_pages",
            Help:      "Page count of the currently loaded document",
        },
    )

    artifactBytes = prometheus.NewGauge(
        prometheus.GaugeOpts{
            Namespace: "pdfsigner",
            Name:      "artifact_bytes",
            Help:      "Size of the current export artifact, 0 when none",
        },
    )
)

// Init registers collectors.
func Init() {
    prometheus.MustRegister(documentsLoaded, renderLatency, pagesRendered, signaturesCommitted, flattenLatency, superseded, documentPages, artifactBytes)
}

// Handler returns the http.Handler for /metrics
func Handler() http.Handler { return promhttp.Handler() }

func ObserveLoad(source, result string, pages int, dur time.Duration) {
    documentsLoaded.WithLabelValues(source, result).Inc()
    renderLatency.WithLabelValues(source).Observe(dur.Seconds())
    if result == "success" {
        pagesRendered.Add(float64(pages))
        documentPages.Set(float64(pages))
    }
}

func ObserveFlatten(result string, dur time.Duration) {
    flattenLatency.WithLabelValues(result).Observe(dur.Seconds())
}

func IncCommitted(mode string) { signaturesCommitted.WithLabelValues(mode).Inc() }
func IncSuperseded(op string)  { superseded.WithLabelValues(op).Inc() }

func SetArtifactBytes(n int) { artifactBytes.Set(float64(n)) }

// DocumentCleared zeroes the per-document gauges.
func DocumentCleared() {
    documentPages.Set(0)
    artifactBytes.Set(0)
}

func ResultLabel(err error) string { if err != nil { return "error" }; return "success" }

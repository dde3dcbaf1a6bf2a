package obs

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "painel_http_in_flight_requests",
		Help: "Requisições HTTP em andamento.",
	})

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "painel_http_requests_total",
			Help: "Total de requisições HTTP.",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "painel_http_request_duration_seconds",
			Help:    "Latência das requisições HTTP em segundos.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	// ResetCodes conta emissões e verificações de códigos de recuperação por resultado.
	ResetCodes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "painel_reset_codes_total",
			Help: "Operações de código de recuperação por etapa e resultado.",
		},
		[]string{"op", "result"},
	)

	// ResetFlows acompanha fluxos de recuperação abertos na API.
	ResetFlows = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "painel_reset_flows_open",
		Help: "Fluxos de recuperação de senha abertos.",
	})

	// RateLimited conta requisições recusadas por limitador.
	RateLimited = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "painel_rate_limited_total",
			Help: "Requisições recusadas por limite de taxa.",
		},
		[]string{"scope"},
	)

	registerOnce sync.Once
)

// Init registra as métricas no registro padrão. Chamadas repetidas são ignoradas.
func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(httpInFlight, httpRequestsTotal, httpRequestDuration, ResetCodes, ResetFlows, RateLimited)
	})
}

// Handler expõe /metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Instrument mede volume, latência e requisições em andamento por rota.
func Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		httpInFlight.Inc()
		defer httpInFlight.Dec()
		start := time.Now()

		sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(sw, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		status := strconv.Itoa(sw.code)

		httpRequestDuration.WithLabelValues(r.Method, route, status).Observe(time.Since(start).Seconds())
		httpRequestsTotal.WithLabelValues(r.Method, route, status).Inc()
	})
}

type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}

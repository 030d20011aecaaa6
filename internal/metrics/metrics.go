// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// ハンドラーやAIサービス層から利用する。
type MetricsCollector interface {
	RecordHTTPRequest(method, route string, statusCode int, duration time.Duration)
	RecordAIRequest(capability string)
	RecordAIFailure(capability string, reason string)
	RecordAILatency(capability string, duration time.Duration)
	RecordSignup(role string)
	RecordApplication()
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	httpRequests *prometheus.CounterVec
	httpLatency  *prometheus.HistogramVec
	aiRequests   *prometheus.CounterVec
	aiFailures   *prometheus.CounterVec
	aiLatency    *prometheus.HistogramVec
	signups      *prometheus.CounterVec
	applications prometheus.Counter
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "careerflow_http_requests_total",
			Help: "HTTPリクエストの合計数（メソッド・ルート・ステータス別）",
		}, []string{"method", "route", "status_code"}),
		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "careerflow_http_request_duration_seconds",
			Help:    "HTTPリクエストのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		aiRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "careerflow_ai_requests_total",
			Help: "AI機能呼び出しの合計数（機能別）",
		}, []string{"capability"}),
		aiFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "careerflow_ai_failures_total",
			Help: "AI機能呼び出し失敗の合計数（機能・理由別）",
		}, []string{"capability", "reason"}),
		aiLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "careerflow_ai_latency_seconds",
			Help:    "外部モデル呼び出しのレイテンシ（秒）",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
		}, []string{"capability"}),
		signups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "careerflow_signups_total",
			Help: "アカウント登録の合計数（ロール別）",
		}, []string{"role"}),
		applications: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "careerflow_applications_total",
			Help: "求人応募の合計数",
		}),
	}

	reg.MustRegister(
		c.httpRequests,
		c.httpLatency,
		c.aiRequests,
		c.aiFailures,
		c.aiLatency,
		c.signups,
		c.applications,
	)

	return c
}

// RecordHTTPRequest はHTTPリクエストの完了を記録する。
func (c *Collector) RecordHTTPRequest(method, route string, statusCode int, duration time.Duration) {
	c.httpRequests.WithLabelValues(method, route, strconv.Itoa(statusCode)).Inc()
	c.httpLatency.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordAIRequest はAI機能呼び出しを記録する。
func (c *Collector) RecordAIRequest(capability string) {
	c.aiRequests.WithLabelValues(capability).Inc()
}

// RecordAIFailure はAI機能呼び出しの失敗を記録する。
func (c *Collector) RecordAIFailure(capability string, reason string) {
	c.aiFailures.WithLabelValues(capability, reason).Inc()
}

// RecordAILatency は外部モデル呼び出しのレイテンシを記録する。
func (c *Collector) RecordAILatency(capability string, duration time.Duration) {
	c.aiLatency.WithLabelValues(capability).Observe(duration.Seconds())
}

// RecordSignup はアカウント登録を記録する。
func (c *Collector) RecordSignup(role string) {
	c.signups.WithLabelValues(role).Inc()
}

// RecordApplication は求人応募を記録する。
func (c *Collector) RecordApplication() {
	c.applications.Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SetupMetricsRoute は/metricsエンドポイントを提供するHTTPハンドラーを返す。
// Prometheusスクレイプに対応する。
func SetupMetricsRoute(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(gatherer))
	return mux
}

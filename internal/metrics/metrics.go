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
// ハンドラーやサービス層から利用する。
type MetricsCollector interface {
	RecordUpload(assetType string, sizeBytes int64)
	RecordProbe(branch, outcome string)
	RecordAuthFailure(reason string)
	RecordHTTPStatus(statusCode int)
	RecordRequestLatency(duration time.Duration)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	uploads        *prometheus.CounterVec
	uploadSize     prometheus.Histogram
	probes         *prometheus.CounterVec
	authFailures   *prometheus.CounterVec
	httpStatus     *prometheus.CounterVec
	requestLatency prometheus.Histogram
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hamim_uploads_total",
			Help: "アセットtype別のアップロード数",
		}, []string{"asset_type"}),
		uploadSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "hamim_upload_size_bytes",
			Help:    "アップロードファイルサイズ（バイト）",
			Buckets: prometheus.ExponentialBuckets(1024, 4, 8),
		}),
		probes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hamim_metadata_probes_total",
			Help: "MIME分岐・結果別のメタデータ抽出数",
		}, []string{"branch", "outcome"}),
		authFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hamim_auth_failures_total",
			Help: "理由別の認証失敗数",
		}, []string{"reason"}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hamim_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		requestLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "hamim_request_latency_seconds",
			Help:    "HTTPリクエストのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		c.uploads,
		c.uploadSize,
		c.probes,
		c.authFailures,
		c.httpStatus,
		c.requestLatency,
	)

	return c
}

// RecordUpload はアップロード1件をtype別に記録する。
func (c *Collector) RecordUpload(assetType string, sizeBytes int64) {
	c.uploads.WithLabelValues(assetType).Inc()
	c.uploadSize.Observe(float64(sizeBytes))
}

// RecordProbe はメタデータ抽出の分岐と結果を記録する。
// outcomeは"extracted"（フィールド取得あり）または"fallback"。
func (c *Collector) RecordProbe(branch, outcome string) {
	c.probes.WithLabelValues(branch, outcome).Inc()
}

// RecordAuthFailure は認証失敗を理由別に記録する。
func (c *Collector) RecordAuthFailure(reason string) {
	c.authFailures.WithLabelValues(reason).Inc()
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordRequestLatency はリクエストのレイテンシを記録する。
func (c *Collector) RecordRequestLatency(duration time.Duration) {
	c.requestLatency.Observe(duration.Seconds())
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

var (
	ProviderRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "livecam_provider_requests_total",
		Help: "Total provider requests",
	}, []string{"provider"})
	ProviderFailTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "livecam_provider_fail_total",
		Help: "Total provider failures (transport, status or decode)",
	}, []string{"provider"})
	ProviderQuotaTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "livecam_provider_quota_total",
		Help: "Total provider responses signalling quota exhaustion",
	}, []string{"provider"})
	ProviderDurationMs = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "livecam_provider_duration_ms",
		Help:    "Provider call duration in milliseconds",
		Buckets: []float64{10, 50, 100, 200, 500, 1000, 2000, 5000},
	}, []string{"provider"})
	KeyRotationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "livecam_key_rotations_total",
		Help: "Credential rotations by phase",
	}, []string{"phase"})
	StoreSize = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "livecam_store_size",
		Help: "Location store size at pipeline stages",
	}, []string{"stage"})
	RemovedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "livecam_validate_removed_total",
		Help: "Entries removed by validation, by reason",
	}, []string{"reason"})
	CandidatesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "livecam_candidates_total",
		Help: "Candidates handed to the resolver",
	})
	ResolvedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "livecam_resolved_total",
		Help: "Candidates resolved, by tier",
	}, []string{"tier"})
	BlacklistedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "livecam_blacklisted_total",
		Help: "Candidates that missed every tier",
	})
	GeocodeCacheTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "livecam_geocode_cache_total",
		Help: "Geocode cache lookups by result",
	}, []string{"result"})
)

func init() {
	prometheus.MustRegister(ProviderRequestsTotal)
	prometheus.MustRegister(ProviderFailTotal)
	prometheus.MustRegister(ProviderQuotaTotal)
	prometheus.MustRegister(ProviderDurationMs)
	prometheus.MustRegister(KeyRotationsTotal)
	prometheus.MustRegister(StoreSize)
	prometheus.MustRegister(RemovedTotal)
	prometheus.MustRegister(CandidatesTotal)
	prometheus.MustRegister(ResolvedTotal)
	prometheus.MustRegister(BlacklistedTotal)
	prometheus.MustRegister(GeocodeCacheTotal)
}

// 文档注释：推送本次运行的指标到 Pushgateway
// 背景：批处理进程生命周期短，无法被 Prometheus 抓取；在退出前推送一次。
// 约束：url 为空时不做任何事；job 名固定，后一次运行覆盖前一次。
func Push(url string) error {
	if url == "" {
		return nil
	}
	return push.New(url, "livecam_geo").
		Gatherer(prometheus.DefaultGatherer).
		Push()
}

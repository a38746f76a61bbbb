package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// 이름 변경 관련 메트릭
	RenamesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "netcore_renames_total",
			Help: "Total number of interface rename batches executed",
		},
		[]string{"status"}, // success, partial, failed
	)

	RenameOpsPlanned = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "netcore_rename_ops_planned",
			Help: "Number of link operations in the most recent rename plan",
		},
	)

	// DHCP 탐색 관련 메트릭
	DHCPDiscoveryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "netcore_dhcp_discovery_total",
			Help: "Total number of DHCP discovery attempts",
		},
		[]string{"backend", "status"}, // dhclient/native, success/failed
	)

	DHCPDiscoveryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "netcore_dhcp_discovery_duration_seconds",
			Help:    "Time spent acquiring a DHCP lease",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"backend"},
	)

	// 임시 네트워크 범위 관련 메트릭
	EphemeralScopesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "netcore_ephemeral_scopes_total",
			Help: "Total number of ephemeral network scopes entered",
		},
		[]string{"family", "status"}, // ipv4/ipv6, success/failed/skipped
	)

	CleanupReplaysTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "netcore_cleanup_replays_total",
			Help: "Total number of queued cleanup commands replayed on scope close",
		},
	)

	// 폴백 NIC 선택 메트릭
	FallbackSelectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "netcore_fallback_selections_total",
			Help: "Total number of fallback NIC selection attempts",
		},
		[]string{"status"}, // success, failed
	)

	// 에러 메트릭
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "netcore_errors_total",
			Help: "Total number of errors encountered",
		},
		[]string{"error_type"}, // VALIDATION, NETWORK, SYSTEM, ...
	)
)

// RecordRename은 이름 변경 배치의 결과를 기록합니다
func RecordRename(status string) {
	RenamesTotal.WithLabelValues(status).Inc()
}

// SetRenameOpsPlanned는 최근 계획의 연산 수를 기록합니다
func SetRenameOpsPlanned(count float64) {
	RenameOpsPlanned.Set(count)
}

// RecordDHCPDiscovery는 DHCP 탐색 시도와 소요 시간을 기록합니다
func RecordDHCPDiscovery(backend string, status string, duration float64) {
	DHCPDiscoveryTotal.WithLabelValues(backend, status).Inc()
	DHCPDiscoveryDuration.WithLabelValues(backend).Observe(duration)
}

// RecordEphemeralScope는 임시 범위 진입 결과를 기록합니다
func RecordEphemeralScope(family string, status string) {
	EphemeralScopesTotal.WithLabelValues(family, status).Inc()
}

// RecordCleanupReplays는 범위 종료 시 재생된 정리 명령 수를 기록합니다
func RecordCleanupReplays(count int) {
	CleanupReplaysTotal.Add(float64(count))
}

// RecordFallbackSelection은 폴백 NIC 선택 결과를 기록합니다
func RecordFallbackSelection(status string) {
	FallbackSelectionsTotal.WithLabelValues(status).Inc()
}

// RecordError는 에러 발생을 기록합니다
func RecordError(errorType string) {
	ErrorsTotal.WithLabelValues(errorType).Inc()
}

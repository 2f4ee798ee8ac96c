package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CampaignsCreated 创建的活动总数
	CampaignsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "charity_campaigns_created_total",
			Help: "Total number of campaigns created",
		},
	)

	// DonationsTotal 捐款笔数，按结果区分
	DonationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "charity_donations_total",
			Help: "Total number of donation attempts",
		},
		[]string{"status"}, // accepted or rejected
	)

	// RefundsTotal 退款笔数
	RefundsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "charity_refunds_total",
			Help: "Total number of refund claims",
		},
		[]string{"status"},
	)

	// FinalizeDuration 终结操作耗时
	FinalizeDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "charity_finalize_duration_seconds",
			Help: "Duration of campaign finalization in seconds",
			Buckets: []float64{
				0.001, // 1ms
				0.005, // 5ms
				0.01,  // 10ms
				0.05,  // 50ms
				0.1,   // 100ms
				0.5,   // 500ms
				1.0,   // 1s
			},
		},
		[]string{"status"}, // success, failed or rejected
	)

	// EventQueueDepth 事件分发队列积压
	EventQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "charity_event_queue_depth",
			Help: "Number of events waiting to be processed",
		},
	)
)

// RecordDonation 记录一次捐款尝试
func RecordDonation(status string) {
	DonationsTotal.WithLabelValues(status).Inc()
}

// RecordRefund 记录一次退款领取
func RecordRefund(status string) {
	RefundsTotal.WithLabelValues(status).Inc()
}

// RecordFinalizeDuration 记录终结耗时
func RecordFinalizeDuration(status string, duration float64) {
	FinalizeDuration.WithLabelValues(status).Observe(duration)
}

package obs

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// PurchaseTotal counts purchase orchestration outcomes by operation.
	PurchaseTotal *prometheus.CounterVec
	// PurchaseCompensations counts compensation runs triggered by mid-sequence failures.
	PurchaseCompensations prometheus.Counter
	// SubscriptionRenewalsTotal counts subscription renewal outcomes.
	SubscriptionRenewalsTotal *prometheus.CounterVec
	// SubscriptionExpiryReconciled counts expired grants flagged for renewal.
	SubscriptionExpiryReconciled prometheus.Counter
	// AttendanceDeniedTotal counts attendance attempts rejected by the access gate.
	AttendanceDeniedTotal prometheus.Counter
	// BillTotalAmount observes the total price of aggregated bills in minor units.
	BillTotalAmount prometheus.Histogram
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		PurchaseTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "purchase_total",
			Help:      "Count of purchase orchestration outcomes.",
		}, []string{"operation", "result"})
		PurchaseCompensations = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "purchase_compensations_total",
			Help:      "Count of compensation passes after a failed purchase step.",
		})
		SubscriptionRenewalsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "subscription_renewals_total",
			Help:      "Count of subscription renewal outcomes.",
		}, []string{"result"})
		SubscriptionExpiryReconciled = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "subscription_expiry_reconciled_total",
			Help:      "Count of expired subscriptions flagged for renewal.",
		})
		AttendanceDeniedTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "attendance_denied_total",
			Help:      "Count of attendance attempts without an active subscription.",
		})
		BillTotalAmount = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "bill_total_amount",
			Help:      "Distribution of aggregated bill totals in minor currency units.",
			Buckets:   prometheus.ExponentialBuckets(10_000, 4, 8),
		})
		register(reg,
			PurchaseTotal,
			PurchaseCompensations,
			SubscriptionRenewalsTotal,
			SubscriptionExpiryReconciled,
			AttendanceDeniedTotal,
			BillTotalAmount,
		)
	})
}

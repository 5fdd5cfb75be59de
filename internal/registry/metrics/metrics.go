package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var durationBuckets = []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1}

// Metrics provides observability for the policy registry.
type Metrics struct {
	PoliciesOpened    prometheus.Counter
	PoliciesCancelled prometheus.Counter
	RefundsCredited   prometheus.Counter
	Withdrawals       prometheus.Counter
	WithdrawnAmount   prometheus.Counter
	TransferFailures  prometheus.Counter
	OperationDuration *prometheus.HistogramVec
	OperationErrors   *prometheus.CounterVec
}

// New registers the registry metrics with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		PoliciesOpened: f.NewCounter(prometheus.CounterOpts{
			Name: "policy_registry_policies_opened_total",
			Help: "Total number of policies opened",
		}),
		PoliciesCancelled: f.NewCounter(prometheus.CounterOpts{
			Name: "policy_registry_policies_cancelled_total",
			Help: "Total number of policies cancelled",
		}),
		RefundsCredited: f.NewCounter(prometheus.CounterOpts{
			Name: "policy_registry_refunds_credited_total",
			Help: "Sum of refunds credited to pending withdrawals, in the smallest currency unit",
		}),
		Withdrawals: f.NewCounter(prometheus.CounterOpts{
			Name: "policy_registry_withdrawals_total",
			Help: "Total number of completed withdrawals",
		}),
		WithdrawnAmount: f.NewCounter(prometheus.CounterOpts{
			Name: "policy_registry_withdrawn_amount_total",
			Help: "Sum of completed withdrawals, in the smallest currency unit",
		}),
		TransferFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "policy_registry_transfer_failures_total",
			Help: "Withdrawals whose outbound transfer failed and was compensated",
		}),
		OperationDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "policy_registry_operation_duration_seconds",
			Help:    "Duration of registry operations",
			Buckets: durationBuckets,
		}, []string{"operation"}),
		OperationErrors: f.NewCounterVec(prometheus.CounterOpts{
			Name: "policy_registry_operation_errors_total",
			Help: "Registry operation failures by error code",
		}, []string{"operation", "code"}),
	}
}

// ObserveOperation records the duration of op. Call with time.Now() at the
// start of the operation.
func (m *Metrics) ObserveOperation(op string, start time.Time) {
	m.OperationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

func (m *Metrics) IncrementError(op, code string) {
	m.OperationErrors.WithLabelValues(op, code).Inc()
}

func (m *Metrics) IncrementPolicyOpened() {
	m.PoliciesOpened.Inc()
}

func (m *Metrics) IncrementPolicyCancelled(refund uint64) {
	m.PoliciesCancelled.Inc()
	m.RefundsCredited.Add(float64(refund))
}

func (m *Metrics) IncrementWithdrawal(amount uint64) {
	m.Withdrawals.Inc()
	m.WithdrawnAmount.Add(float64(amount))
}

func (m *Metrics) IncrementTransferFailure() {
	m.TransferFailures.Inc()
}

// Package telemetry exposes the engine's Prometheus metrics.
package telemetry

import (
	"tramita_backend/internal/engine"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SweepsCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tramita_sweeps_completed_total",
		Help: "Sweeps that ran to completion.",
	})

	SweepsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tramita_sweeps_failed_total",
		Help: "Sweeps aborted before any write (store unreachable).",
	})

	SweepsSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tramita_sweeps_skipped_total",
		Help: "Sweep invocations dropped because the lock was held.",
	})

	SweepActions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tramita_sweep_actions_total",
		Help: "Actions applied by sweeps, by action kind.",
	}, []string{"action"})

	SkippedEntities = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tramita_sweep_skipped_entities_total",
		Help: "Entities whose unit of work failed and was skipped.",
	})
)

// ObserveSweep records one completed sweep's counters.
func ObserveSweep(res engine.SweepResult) {
	SweepsCompleted.Inc()
	SkippedEntities.Add(float64(res.SkippedEntities))

	for action, n := range map[string]int{
		"welcome_message":      res.WelcomeMessages,
		"reengagement":         res.Reengagements,
		"lead_archived":        res.Archived,
		"contract_reminder":    res.ContractReminders,
		"contract_cancelled":   res.ContractsCancelled,
		"payment_pre_reminder": res.PaymentPreReminders,
		"payment_post_reminder": res.PaymentPostReminders,
		"payment_cancelled":    res.PaymentsCancelled,
		"case_created":         res.CasesCreated,
		"document_reminder":    res.DocumentReminders,
		"onboarding_reminder":  res.OnboardingReminders,
		"tie_pickup_reminder":  res.TIEPickupReminders,
	} {
		if n > 0 {
			SweepActions.WithLabelValues(action).Add(float64(n))
		}
	}
}

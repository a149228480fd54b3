package helpers

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Flow counters exposed on /api/metrics.
var (
	RegistrationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "eventlocator",
		Name:      "registrations_total",
		Help:      "Registration attempts by outcome (created, invalid, conflict, error).",
	}, []string{"outcome"})

	WelcomeNotificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "eventlocator",
		Name:      "welcome_notifications_total",
		Help:      "Welcome notification dispatch attempts by result (queued, failed, disabled).",
	}, []string{"result"})

	ProfileRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "eventlocator",
		Name:      "profile_requests_total",
		Help:      "Profile flow results by mode and status.",
	}, []string{"mode", "status"})
)

// EmailJobsTotal counts email worker results (sent, requeued, dropped).
var EmailJobsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "eventlocator",
	Name:      "email_jobs_total",
	Help:      "Email jobs handled by the worker by kind and result.",
}, []string{"kind", "result"})

// Package metrics defines the custom Prometheus metrics exported at /metrics.
// Metrics are registered on the default registry at package init.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "bizdesk"

// RegistrationsTotal counts created accounts.
var RegistrationsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "registrations_total",
		Help:      "Total number of accounts registered.",
	},
)

// LoginsTotal counts login attempts.
// Label:
//   - result: "success", "invalid_credentials" or "disabled"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// PasswordResetTotal counts password reset requests and confirmations.
// Labels:
//   - stage: "request" or "confirm"
//   - result: "sent", "unknown_email", "mail_failed", "success" or "invalid_token"
var PasswordResetTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "password_reset_total",
		Help:      "Total number of password reset operations, by stage and result.",
	},
	[]string{"stage", "result"},
)

// InvoicesCreatedTotal counts created invoices.
var InvoicesCreatedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "invoices_created_total",
		Help:      "Total number of invoices created.",
	},
)

// InvoiceStatusChangesTotal counts mark_as_paid / mark_as_sent calls.
var InvoiceStatusChangesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "invoice_status_changes_total",
		Help:      "Total number of explicit invoice status changes, by new status.",
	},
	[]string{"status"},
)

// FilesUploadedTotal counts stored uploads by inferred type ("photo", "video" or "other").
var FilesUploadedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "files_uploaded_total",
		Help:      "Total number of files uploaded, by file type.",
	},
	[]string{"file_type"},
)

// FileUploadBytes observes the size of stored uploads.
var FileUploadBytes = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "file_upload_bytes",
		Help:      "Size of uploaded files in bytes.",
		Buckets:   prometheus.ExponentialBuckets(1024, 4, 10),
	},
)

// RateLimitedTotal counts requests rejected by the auth route limiter.
var RateLimitedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rate_limited_total",
		Help:      "Total number of requests rejected by the rate limiter, by route.",
	},
	[]string{"route"},
)

// Copyright (c) 2026 SamaTechnicien. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package metrics owns the Prometheus registry of the identity API.

Counters:

  - sama_login_attempts_total{outcome}: one increment per login attempt.
  - sama_reconcile_write_failures_total{operation}: best-effort writes that failed.
  - sama_auto_logins_total{outcome}: provider push events handled by auto-login.
  - sama_http_requests_total{method,status}: finished HTTP requests.

All recording methods are safe on a nil *Metrics, so services can run without metrics in tests.
*/
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "sama"

// Metrics groups the application counters and the registry they live in.
type Metrics struct {
	registry *prometheus.Registry

	LoginAttempts          *prometheus.CounterVec
	ReconcileWriteFailures *prometheus.CounterVec
	AutoLogins             *prometheus.CounterVec
	HTTPRequests           *prometheus.CounterVec
}

// New creates a registry with the Go runtime collectors and the application counters.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	metrics := &Metrics{
		registry: registry,
		LoginAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "login_attempts_total",
			Help:      "Login attempts by reconciliation outcome.",
		}, []string{"outcome"}),
		ReconcileWriteFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconcile_write_failures_total",
			Help:      "Best-effort canonical store writes that failed during reconciliation.",
		}, []string{"operation"}),
		AutoLogins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auto_logins_total",
			Help:      "Provider push events processed by auto-login, by outcome.",
		}, []string{"outcome"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Finished HTTP requests by method and status code.",
		}, []string{"method", "status"}),
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		metrics.LoginAttempts,
		metrics.ReconcileWriteFailures,
		metrics.AutoLogins,
		metrics.HTTPRequests,
	)

	return metrics
}

// Handler exposes the registry in the Prometheus text format.
func (metrics *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(metrics.registry, promhttp.HandlerOpts{})
}

// # Recording

// LoginOutcome records the result of one login attempt.
func (metrics *Metrics) LoginOutcome(outcome string) {
	if metrics == nil {
		return
	}
	metrics.LoginAttempts.WithLabelValues(outcome).Inc()
}

// ReconcileWriteFailed records a swallowed best-effort write failure.
func (metrics *Metrics) ReconcileWriteFailed(operation string) {
	if metrics == nil {
		return
	}
	metrics.ReconcileWriteFailures.WithLabelValues(operation).Inc()
}

// AutoLogin records the result of handling one provider push event.
func (metrics *Metrics) AutoLogin(outcome string) {
	if metrics == nil {
		return
	}
	metrics.AutoLogins.WithLabelValues(outcome).Inc()
}

// # HTTP Instrumentation

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (recorder *statusRecorder) WriteHeader(code int) {
	recorder.status = code
	recorder.ResponseWriter.WriteHeader(code)
}

// Instrument counts every finished request by method and status code.
func (metrics *Metrics) Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		recorder := &statusRecorder{ResponseWriter: writer, status: http.StatusOK}
		next.ServeHTTP(recorder, request)

		if metrics != nil {
			metrics.HTTPRequests.WithLabelValues(request.Method, strconv.Itoa(recorder.status)).Inc()
		}
	})
}

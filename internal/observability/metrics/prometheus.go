// Copyright 2026 The myAdmin Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds the Prometheus collectors served on /metrics. Each
// Registry owns its own prometheus.Registry so tests can create many.
type Registry struct {
	reg *prometheus.Registry

	HTTPRequests     *prometheus.CounterVec
	HTTPDuration     *prometheus.HistogramVec
	TenantDenials    *prometheus.CounterVec
	RowsImported     *prometheus.CounterVec
	CacheInvalidated *prometheus.CounterVec
	EventsConsumed   *prometheus.CounterVec
}

// NewRegistry creates and registers all collectors.
func NewRegistry() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "myadmin_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "myadmin_http_request_duration_seconds",
				Help:    "HTTP request latency",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		TenantDenials: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "myadmin_tenant_access_denied_total",
				Help: "Requests denied by tenant or role checks",
			},
			[]string{"reason"},
		),
		RowsImported: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "myadmin_ledger_rows_imported_total",
				Help: "Ledger rows inserted by imports",
			},
			[]string{"administration"},
		),
		CacheInvalidated: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "myadmin_cache_invalidations_total",
				Help: "Tenant cache invalidations",
			},
			[]string{"trigger"},
		),
		EventsConsumed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "myadmin_events_consumed_total",
				Help: "Broker messages handled",
			},
			[]string{"queue", "result"},
		),
	}

	r.reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.HTTPRequests,
		r.HTTPDuration,
		r.TenantDenials,
		r.RowsImported,
		r.CacheInvalidated,
		r.EventsConsumed,
	)
	return r
}

// Gatherer exposes the underlying registry.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}

// Handler returns the Prometheus metrics HTTP handler
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}

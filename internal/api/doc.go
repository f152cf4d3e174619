// Package api hosts the HTTP server, middleware, and REST handlers for
// operator access. Notable routes:
//   - GET /healthz and /readyz for Kubernetes probes.
//   - GET /metrics for Prometheus scraping.
//   - GET /v1/stats for the harvest progress snapshot.
//   - GET /v1/acts for recently persisted acts.
//   - GET /v1/runs and /v1/runs/{id}/strategies for run bookkeeping via the
//     RunRepository interface.
package api

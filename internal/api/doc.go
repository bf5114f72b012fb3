// Package api hosts the HTTP server, middleware, and REST handlers. Notable
// routes:
//   - GET /healthz / readyz for Kubernetes probes.
//   - GET /metrics for Prometheus scraping.
//   - POST /v1/ingestions to trigger an ingestion run (API key when auth is on).
//   - GET /v1/status, /v1/draws and /v1/draws/{issue} for stored history.
//   - POST /v1/generations and GET /v1/generations for per-user combinations,
//     keyed by the X-User-ID header set by the upstream auth proxy.
package api

// Package main hosts the shuangse service entrypoint.
//
// Architecture overview:
//   - Ingestion: internal/ingest.Coordinator runs the fallback pipeline, validates every candidate draw,
//     skips issues already stored and inserts the rest one by one. Runs are serialized.
//   - Fallback pipeline: internal/pipeline tries each configured source in order. A stage fetches one page via
//     the Colly-based fetcher (rotating browser header profiles, a jittered pre-request delay and a per-host
//     token bucket) and runs its extractors until one yields a valid draw. When every stage fails, the synthetic
//     backfill produces placeholder draws at the Tue/Thu/Sun cadence, tagged with synthetic provenance.
//   - Generation: internal/generator samples 6 distinct red numbers and one blue number, rejects anything already
//     drawn or already produced in the same request, and records accepted combinations on a best-effort basis.
//   - Persistence: Postgres through pgxpool (schema bootstrapped on startup) or an in-memory store for development.
//   - Configuration & plumbing: Viper populates config from env/files (prefix SHUANGSE); zap provides structured
//     logging; Prometheus metrics are exported via the metrics middleware and /metrics handler.
//
// Operational notes:
//   - The serve command runs one ingestion at startup and then every schedule.interval; set it to 0 to rely on
//     an external trigger hitting POST /v1/ingestions.
//   - The generator checks history and writes its log without a transaction, so two concurrent requests can both
//     hand out the same unseen combination.
//
// Quick checklist:
//   - Configure env vars: SHUANGSE_STORAGE_DRIVER=memory|postgres, SHUANGSE_DB_DSN, SHUANGSE_SERVER_PORT,
//     SHUANGSE_AUTH_ENABLED and SHUANGSE_AUTH_API_KEY to guard the ingestion trigger.
//   - Run locally: go run ./cmd/shuangse serve --config config.yaml (or rely solely on env overrides).
//   - One-off: go run ./cmd/shuangse ingest, go run ./cmd/shuangse generate --user alice --count 5.
package main

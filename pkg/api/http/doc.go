// Package http provides the HTTP REST API implementation.
//
// The HTTP server exposes endpoints for:
//   - Run submission and cancellation
//   - Status and result queries
//   - Markdown report rendering
//   - Health checks
//   - Prometheus metrics
package http

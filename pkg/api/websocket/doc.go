// Package websocket streams per-run progress events to connected clients.
package websocket

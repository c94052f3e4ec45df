// Package server provides the HTTP server that serves export downloads,
// metrics and health probes.
package server

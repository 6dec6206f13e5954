// Package server exposes the evaluation controller over HTTP.
//
// Routes:
//
//	POST /v1/check        evaluate text, returns the verdict
//	GET  /v1/verify/{seq} check an audit entry's inclusion proof
//	POST /v1/batch        force provenance batching
//	GET  /v1/mode         report the active mode
//	PUT  /v1/mode         switch the active mode
//	GET  /healthz         liveness probe
//	GET  /metrics         Prometheus exposition
//
// A quarantined ruleset surfaces as 503 on /v1/check: the service refuses
// to evaluate under a ruleset that failed integrity verification.
package server

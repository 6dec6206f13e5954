// Package metrics exposes Prometheus metrics for evaluations, the verdict
// cache, the embedding provider, the audit log and provenance anchoring.
package metrics

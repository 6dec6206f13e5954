// Package runtime wires the evaluation pipeline together. The Controller
// resolves the active ruleset, consults the TTL verdict cache, runs the
// engine under the configured mode, appends one audit entry per decision
// and feeds the provenance batcher.
//
// Mode semantics:
//   - strict: deterministic checks first, short-circuiting on a BLOCK; a
//     clean deterministic pass then waits on the semantic phase. Semantic
//     unavailability fails closed with an indeterminate verdict.
//   - sync_light: the response is served from deterministic checks alone;
//     the semantic phase runs in the background and a late violation is
//     logged as a retro_flag entry pointing at the original evaluation.
//     Cache hits skip the background re-check: a text is semantically
//     screened once per cache lifetime, and any retro_flag from that
//     screening carries the same content fingerprint as every later hit.
//   - regex_only: the embedding provider is never touched.
package runtime

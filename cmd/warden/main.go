// Warden is a versioned, fingerprinted content-rule enforcement engine with
// a tamper-evident audit trail.
//
// It evaluates text against a cryptographically fingerprinted ruleset,
// records every decision in a gap-free audit log and anchors Merkle roots
// over the log to an external witness:
//   - Deterministic pattern, required-pattern and Luhn checksum checks
//   - Semantic intent checks through an embedding provider
//   - strict, sync_light and regex_only evaluation modes
//   - Inclusion proofs for any logged decision
//
// Usage:
//
//	# Start the service with default configuration
//	warden run
//
//	# Start with a custom configuration file
//	warden run --config /path/to/config.yaml
//
//	# Validate a ruleset and print its fingerprint
//	warden lint --rules rules.yaml
//
//	# Show version information
//	warden version
package main

func main() {
	Execute()
}

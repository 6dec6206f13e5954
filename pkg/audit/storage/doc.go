// Package storage provides audit log storage backends.
//
// MemoryStorage serves tests and ephemeral deployments; SQLiteStorage
// persists the log in WAL mode so provenance batching can read settled
// ranges while the single writer keeps appending.
package storage

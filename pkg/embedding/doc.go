// Package embedding abstracts the external embedding provider used by
// semantic checks.
//
// The Provider interface models the collaborator: Embed(text) returns a
// fixed-dimension vector, deterministic per provider version. Two adapters
// ship with the package: HTTPProvider calls an OpenAI-compatible embeddings
// endpoint, and FakeProvider is a deterministic offline implementation so
// the engine and runtime are fully testable without a network.
//
// The provider is a shared, concurrency-limited resource. Pool enforces that
// limit with a blocking semaphore; all semantic evaluations go through one
// pool rather than hitting the provider with unbounded parallelism.
package embedding

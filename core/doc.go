// Package core holds the ownership registry: the asset record, the
// register/transfer/owner state machine, its error taxonomy, and the
// contracts for the durable store, per-asset locking, and caller identity
// verification. Storage and transport adapters depend on core, never the
// other way around.
package core

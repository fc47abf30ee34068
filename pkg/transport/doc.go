// Package transport defines the persistence contracts of the dojo backend
// and the HTTP plumbing shared by its handlers: error-to-status mapping,
// JSON response writers, and cross-cutting middleware (request id, logging,
// panic recovery, per-request timeout).
//
// The Store interface lives here rather than in pkg/storage so that store
// adapters depend on the contract without the handlers depending on any
// concrete adapter.
package transport

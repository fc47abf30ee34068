// Package auth provides authentication for the dojo backend.
//
// Authentication uses a chain-of-responsibility pattern with three-outcome
// voting: each authenticator returns Yes (identity found), No (credentials
// invalid), or Abstain (can't handle). Requests where every authenticator
// abstains are rejected as unauthenticated; a No vote is rejected as
// forbidden.
//
// Auth is implemented as HTTP middleware, keeping it decoupled from handler
// logic. The middleware is the only path by which a handler learns the
// caller's identity: it injects the verified owner id into the request
// context for storage tenancy scoping, and handlers never trust identity
// fields in request bodies.
package auth

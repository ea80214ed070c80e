// Package taskflow implements a task management backend: bearer token
// authentication (bcrypt credential verification, JWT issuance and
// validation, HTTP middleware) and the users/tasks resources persisted
// through Bun repositories.
//
// Authentication:
//   - UserProvider verifies credentials against the users store and hides
//     whether a failure came from an unknown identifier or a bad password.
//   - Auther turns a verified identity into a signed, time limited token.
//     Tokens are stateless; revocation before expiry is not supported, so
//     keep the TTL short (the default is 30 minutes).
//   - RouteAuthenticator wires the jwtware middleware and resolves the
//     validated claims back to a live user record, rejecting requests whose
//     subject no longer exists or has been deactivated.
//   - Auther.Impersonate and SessionFromToken exist for operator tooling and
//     tests; no HTTP route exposes them.
//
// Resources:
//   - Users and Tasks repositories own all persistence. Uniqueness of email
//     and username is enforced by the store's constraints, never by a read
//     check before insert, so concurrent registrations cannot both succeed.
//   - Controllers are thin JSON translators over the repositories; every
//     write runs inside a transaction so failed requests leave no partial
//     state behind.
package taskflow

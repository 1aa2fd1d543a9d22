// Package identity implements the identity and access subsystem for user-facing
// applications: registration with email verification, token-based password
// recovery, single-role assignment, and paginated user administration.
//
// Account lifecycle:
//   - Users carry a UserStatus field that is persisted via Bun. Accounts are
//     created pending, become active only through verification-token
//     redemption, and can be disabled or removed by an administrator.
//   - UserStateMachine centralizes the transition graph so every mutation of
//     account status goes through the same invariants.
//
// Tokens:
//   - TokenService issues purpose-scoped, HMAC-signed tokens for email
//     verification, password reset, and sessions. Tokens are stateless;
//     revocation is enforced by re-checking user state at redemption time.
//
// Roles:
//   - Registry holds the fixed, pre-seeded role set. A user holds at most one
//     role; AccessController.AssignRole replaces it, never appends.
package identity

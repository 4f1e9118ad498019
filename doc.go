// Package blog implements the account and content backend of a small
// blogging service: registration, password login, stateful JWT sessions,
// and the post/comment repositories behind them.
//
// Sessions:
//   - Tokens are HS256 JWTs with no expiry claim. Every issued token is
//     persisted into the owner's valid-token set and a token is only
//     accepted while it remains a member. Logout pulls the token from the
//     set, so revocation is immediate and per-device.
//   - Resolve performs the double check (signature, then set membership)
//     and collapses every failure into the same generic rejection.
//
// Authorization:
//   - Roles are plain strings (user, admin) stored on the account row.
//     Gating decisions read the freshly loaded row, never the role
//     snapshot baked into the token payload.
//   - Post ownership is the author display name; only the owner may
//     delete a post, and only admins may delete comments.
package blog

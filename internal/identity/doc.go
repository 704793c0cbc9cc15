// Package identity represents who is calling: an authenticated user or an
// anonymous visitor.
//
// Identity is an explicit two-variant value threaded through context.Context
// rather than a global auth singleton. The persistence adapter and the quota
// gate both branch on it.
//
// # Tokens
//
// Authenticated users present HS256 JWTs signed with the server's jwt_secret.
// The "sub" claim carries the user id:
//
//	verifier := identity.NewJWTVerifier(secret)
//	userID, err := verifier.Verify(token)
//
// RequireAuth and OptionalAuth wrap HTTP handlers and attach the resulting
// Identity to the request context.
package identity

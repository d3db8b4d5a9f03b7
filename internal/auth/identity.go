package auth

import "context"

// Identity is the per-request record of which subject, if any, a request
// has proven to be. It carries no roles or permissions beyond
// "authenticated". Absence from the context means the request is
// anonymous.
type Identity struct {
	Subject string
}

type ctxKey int

const (
	identityKey ctxKey = iota
	credentialKey
)

// WithIdentity returns a context carrying the authenticated identity.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFrom extracts the authenticated identity, if one was
// established for this request.
func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok
}

func withCredentialSupplied(ctx context.Context) context.Context {
	return context.WithValue(ctx, credentialKey, true)
}

// CredentialSupplied reports whether the request carried a bearer token,
// regardless of whether that token verified. RequireIdentity uses it to
// pick between 401 (bad credential) and 403 (no credential).
func CredentialSupplied(ctx context.Context) bool {
	supplied, _ := ctx.Value(credentialKey).(bool)
	return supplied
}

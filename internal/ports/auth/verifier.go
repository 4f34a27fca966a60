package auth

import "context"

// AuthVerifier verifica un token y devuelve claims o error.
type AuthVerifier interface {
	Verify(ctx context.Context, token string) (Claims, error)
}

// TokenIssuer emite un token firmado para las claims dadas.
// Lo implementa el adapter jwtauth; el handler de login lo usa vía este port.
type TokenIssuer interface {
	Issue(claims Claims) (string, error)
}

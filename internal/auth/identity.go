package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"

	"selfattend/internal/session"
)

// ErrInvalidCredential is returned when a credential carries no usable identity.
var ErrInvalidCredential = errors.New("invalid credential")

// IDTokenClaims is the subset of a Google-style ID token read at login.
type IDTokenClaims struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// DecodeIdentity reads the subject and display name from a provider ID token.
// The signature is not checked; the provider is trusted to have issued it.
func DecodeIdentity(credential string) (session.Identity, error) {
	var claims IDTokenClaims
	if _, _, err := jwt.NewParser().ParseUnverified(credential, &claims); err != nil {
		return session.Identity{}, errors.Wrap(ErrInvalidCredential, err.Error())
	}
	if claims.Subject == "" {
		return session.Identity{}, errors.Wrap(ErrInvalidCredential, "missing sub")
	}
	name := claims.Name
	if name == "" {
		name = claims.Email
	}
	return session.Identity{ID: claims.Subject, DisplayName: name}, nil
}

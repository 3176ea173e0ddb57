package identity

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the token claims the provider signs for a user.
type Claims struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// TokenVerifier validates HMAC-signed identity tokens against a configured
// audience (the client identifier registered with the provider).
type TokenVerifier struct {
	secret   []byte
	audience string
	issuer   string
}

// NewTokenVerifier builds a TokenVerifier. Secret and audience are mandatory;
// a verifier without them rejects every token with ErrMissingConfig.
func NewTokenVerifier(secret []byte, audience, issuer string) *TokenVerifier {
	return &TokenVerifier{
		secret:   secret,
		audience: audience,
		issuer:   issuer,
	}
}

// Verify parses and validates a token and resolves the caller's identity.
func (v *TokenVerifier) Verify(_ context.Context, tokenString string) (*Identity, error) {
	if len(v.secret) == 0 || v.audience == "" {
		return nil, &AuthError{Kind: ErrMissingConfig}
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		return nil, invalidToken(err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, invalidToken(fmt.Errorf("invalid token claims"))
	}

	if claims.Subject == "" {
		return nil, invalidToken(fmt.Errorf("missing subject"))
	}

	if v.issuer != "" && claims.Issuer != v.issuer {
		return nil, invalidToken(fmt.Errorf("invalid issuer"))
	}

	validAudience := false
	for _, aud := range claims.Audience {
		if aud == v.audience {
			validAudience = true
			break
		}
	}
	if !validAudience {
		return nil, invalidToken(fmt.Errorf("invalid audience"))
	}

	return &Identity{
		Subject: claims.Subject,
		Name:    claims.Name,
		Email:   claims.Email,
	}, nil
}

// SignToken mints a token the verifier accepts. Meant for local tooling and
// tests; in production tokens come from the external provider.
func SignToken(secret []byte, audience, issuer, subject, name string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Name: name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    issuer,
			Audience:  jwt.ClaimStrings{audience},
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

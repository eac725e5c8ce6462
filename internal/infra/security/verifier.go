package security

import (
	"context"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"stayfinder/internal/app/policies"
)

// JWTVerifier validates bearer tokens minted by the external identity
// provider. Only HS256 is accepted; the subject claim carries the user id.
type JWTVerifier struct {
	Secret []byte
}

type accessClaims struct {
	Role string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

func (v JWTVerifier) Verify(_ context.Context, credential string) (policies.Principal, error) {
	credential = strings.TrimSpace(credential)
	if credential == "" {
		return policies.Principal{}, policies.ErrInvalidCredential
	}

	claims := &accessClaims{}
	token, err := jwt.ParseWithClaims(credential, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return v.Secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return policies.Principal{}, fmt.Errorf("%w: %v", policies.ErrInvalidCredential, err)
	}
	if claims.Subject == "" {
		return policies.Principal{}, policies.ErrInvalidCredential
	}
	return policies.Principal{UserID: claims.Subject, Role: claims.Role}, nil
}

var _ policies.CredentialVerifier = JWTVerifier{}

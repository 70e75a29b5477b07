package security

import (
	"context"
	"fmt"

	"firebase.google.com/go/v4/auth"

	"gearrent-backend/internal/logger"
)

// IDTokenVerifier is implemented by *auth.Client.
type IDTokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// FirebaseVerifier accepts Firebase Authentication ID tokens. Admins carry
// the custom claim admin=true.
type FirebaseVerifier struct {
	client IDTokenVerifier
}

func NewFirebaseVerifier(client IDTokenVerifier) *FirebaseVerifier {
	return &FirebaseVerifier{client: client}
}

func (v *FirebaseVerifier) Verify(ctx context.Context, token string) (*Identity, error) {
	logger.ExternalServiceCall("firebase", "VerifyIDToken")
	t, err := v.client.VerifyIDToken(ctx, token)
	logger.ExternalServiceResult("firebase", "VerifyIDToken", err)
	if err != nil {
		if auth.IsIDTokenExpired(err) {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	id := &Identity{UserID: t.UID, Source: "firebase"}
	if email, ok := t.Claims["email"].(string); ok {
		id.Email = email
	}
	if admin, ok := t.Claims["admin"].(bool); ok {
		id.Admin = admin
	}
	return id, nil
}

package auth

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims are issued by the external identity provider. This service only
// verifies the signature and extracts the user identity; account management
// happens elsewhere.
type Claims struct {
	jwt.RegisteredClaims
	// PatientID binds the user to a patient record when the token was
	// issued for a patient login.
	PatientID string `json:"patient_id,omitempty"`
}

type TokenVerifier struct {
	secret []byte
}

func NewTokenVerifier(secret string) *TokenVerifier {
	return &TokenVerifier{secret: []byte(secret)}
}

// Verify parses and validates the bearer token, returning the user id and
// the optional patient binding.
func (v *TokenVerifier) Verify(tokenString string) (userID, patientID uuid.UUID, err error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil || !token.Valid {
		return uuid.Nil, uuid.Nil, ErrInvalidToken
	}

	userID, err = uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, uuid.Nil, ErrInvalidToken
	}

	if claims.PatientID != "" {
		patientID, err = uuid.Parse(claims.PatientID)
		if err != nil {
			return uuid.Nil, uuid.Nil, ErrInvalidToken
		}
	}
	return userID, patientID, nil
}

package util

import (
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// WebhookSubject is the fixed principal the inbound-parse forwarder
// authenticates as.
const WebhookSubject = "inbound-parse"

// GenerateWebhookToken creates the bearer token configured on the
// inbound-parse forwarder.
func GenerateWebhookToken(secret string) (string, error) {
	claims := jwt.MapClaims{
		"sub": WebhookSubject,
		"iat": time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseWebhookToken validates the token signature and subject.
func ParseWebhookToken(tokenStr, secret string) error {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(secret), nil
	})
	if err != nil {
		return err
	}

	if !token.Valid {
		return jwt.ErrTokenInvalidClaims
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return jwt.ErrTokenMalformed
	}

	sub, _ := claims["sub"].(string)
	if sub != WebhookSubject {
		return jwt.ErrTokenInvalidSubject
	}

	return nil
}

func ExtractToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return ""
	}

	parts := strings.Split(auth, " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return ""
	}

	return parts[1]
}

package http

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/EngSayh/Fixzit-sub007/internal/pkg/errors"
)

const (
	authUserClaim = "sub"
	authOrgClaim  = "cid"
)

var authHMACSecret []byte

// SetAuthSecret installs the HS256 secret used to verify bearer tokens.
func SetAuthSecret(secret []byte) {
	authHMACSecret = secret
}

// AuthMiddleware verifies the JWT and stores the user and org IDs on
// the request context. The token is read from the Authorization header,
// falling back to the token query parameter because EventSource cannot
// set headers.
func AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := r.Header.Get("Authorization")
		if token == "" {
			token = r.URL.Query().Get("token")
		}
		if strings.HasPrefix(strings.ToLower(token), "bearer ") {
			token = strings.TrimSpace(token[7:])
		}
		if token == "" {
			errors.WriteError(w, r, errors.New(http.StatusUnauthorized, "Unauthorized", "JWT token required"))
			return
		}

		claims, err := parseAndVerifyJWT(token)
		if err != nil {
			errors.WriteError(w, r, errors.New(http.StatusUnauthorized, "Unauthorized", "Invalid JWT"))
			return
		}

		ac := authContext{
			UserID: getStringClaim(claims, authUserClaim),
			OrgID:  getStringClaim(claims, authOrgClaim),
		}
		if ac.UserID == "" || ac.OrgID == "" {
			errors.WriteError(w, r, errors.New(http.StatusUnauthorized, "Unauthorized", "Token missing subject or org claim"))
			return
		}
		ctx := context.WithValue(r.Context(), authContextKey{}, ac)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func parseAndVerifyJWT(token string) (map[string]any, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return nil, fmt.Errorf("invalid token format")
	}
	headerJSON, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return nil, err
	}
	payloadJSON, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return nil, err
	}
	signature, err := base64.RawURLEncoding.DecodeString(parts[2])
	if err != nil {
		return nil, err
	}

	var header map[string]any
	if err := json.Unmarshal(headerJSON, &header); err != nil {
		return nil, err
	}
	if alg, _ := header["alg"].(string); alg != "HS256" {
		return nil, fmt.Errorf("invalid alg")
	}
	if len(authHMACSecret) == 0 {
		return nil, fmt.Errorf("hmac key not configured")
	}

	mac := hmac.New(sha256.New, authHMACSecret)
	mac.Write([]byte(parts[0] + "." + parts[1]))
	expected := mac.Sum(nil)
	if subtle.ConstantTimeCompare(expected, signature) != 1 {
		return nil, fmt.Errorf("invalid signature")
	}

	var claims map[string]any
	if err := json.Unmarshal(payloadJSON, &claims); err != nil {
		return nil, err
	}
	if !validateTimes(claims) {
		return nil, fmt.Errorf("token expired or not valid yet")
	}
	return claims, nil
}

func validateTimes(claims map[string]any) bool {
	now := time.Now().Unix()
	if exp, ok := getNumericClaim(claims, "exp"); ok && now > exp {
		return false
	}
	if nbf, ok := getNumericClaim(claims, "nbf"); ok && now < nbf {
		return false
	}
	return true
}

func getNumericClaim(claims map[string]any, key string) (int64, bool) {
	v, ok := claims[key]
	if !ok || v == nil {
		return 0, false
	}
	switch t := v.(type) {
	case float64:
		return int64(t), true
	case int64:
		return t, true
	case json.Number:
		i, err := t.Int64()
		if err == nil {
			return i, true
		}
	}
	return 0, false
}

func getStringClaim(claims map[string]any, key string) string {
	v, ok := claims[key]
	if !ok || v == nil {
		return ""
	}
	s, _ := v.(string)
	return s
}

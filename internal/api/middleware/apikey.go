package middleware

import (
	"crypto/sha256"
	"crypto/subtle"
	"net/http"
	"os"
	"time"

	"github.com/fernet/fernet-go"

	"github.com/stocktrackr/backend/internal/api/response"
)

// timeTokenTTL bounds how long a minted time token stays valid.
const timeTokenTTL = 5 * time.Minute

// APIKeyMiddleware guards mutating engine endpoints. Callers present the
// shared key in X-API-Key plus a fernet time token in X-Time-Token minted
// from that key, so a captured request stops working once the token expires.
func APIKeyMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		internalKey := os.Getenv("INTERNAL_API_KEY")
		if internalKey == "" {
			response.RespondError(w, http.StatusInternalServerError, "authentication failed", "Authentication not loaded")
			return
		}

		apiKey := r.Header.Get("X-API-Key")
		if apiKey == "" {
			response.RespondError(w, http.StatusUnauthorized, "authentication failed", "Missing API key")
			return
		}
		if subtle.ConstantTimeCompare([]byte(apiKey), []byte(internalKey)) != 1 {
			response.RespondError(w, http.StatusUnauthorized, "authentication failed", "Invalid API key")
			return
		}

		timeToken := r.Header.Get("X-Time-Token")
		if timeToken == "" {
			response.RespondError(w, http.StatusUnauthorized, "authentication failed", "Missing Time token")
			return
		}
		if fernet.VerifyAndDecrypt([]byte(timeToken), timeTokenTTL, []*fernet.Key{deriveKey(internalKey)}) == nil {
			response.RespondError(w, http.StatusUnauthorized, "authentication failed", "Time token is invalid or expired")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// GenerateTimeToken mints a fernet time token bound to the shared key, for
// internal callers of guarded endpoints.
func GenerateTimeToken(apiKey string) string {
	token, err := fernet.EncryptAndSign([]byte("ok"), deriveKey(apiKey))
	if err != nil {
		return ""
	}
	return string(token)
}

// deriveKey turns the shared API key into a fernet key.
func deriveKey(apiKey string) *fernet.Key {
	sum := sha256.Sum256([]byte(apiKey))
	key := fernet.Key(sum)
	return &key
}

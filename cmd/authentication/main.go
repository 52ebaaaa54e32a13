// This is a **mock authentication service** that issues JWT tokens for the
// vesting ledger, simulating a wallet sign-in. The token subject is the
// caller identity used by every protected operation.
package main

import (
	"encoding/json"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gartstein/vestledger/internal/vesting/auth"
)

const (
	defaultPort   = "8081"       // Default port for the authentication service
	defaultSecret = "jwt_secret" // Secret for signing JWT
)

// TokenResponse represents the response structure
type TokenResponse struct {
	Token     string `json:"token"`
	Subject   string `json:"sub"`
	ExpiresAt int64  `json:"expires_at"`
}

func newTokenHandler(secret string, ttl time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		subject := r.URL.Query().Get("sub")
		if subject == "" {
			http.Error(w, "Missing sub parameter", http.StatusBadRequest)
			return
		}

		token, err := auth.GenerateToken(subject, secret, ttl)
		if err != nil {
			http.Error(w, "Failed to generate token", http.StatusInternalServerError)
			return
		}

		resp := TokenResponse{
			Token:     token,
			Subject:   subject,
			ExpiresAt: time.Now().Add(ttl).Unix(),
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			http.Error(w, "Failed to encode token", http.StatusInternalServerError)
		}
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	port := getenv("AUTH_PORT", defaultPort)
	secret := getenv("JWT_SECRET", defaultSecret)

	mux := http.NewServeMux()
	mux.HandleFunc("/token", newTokenHandler(secret, auth.DefaultTokenTTL))

	server := &http.Server{
		Addr:              ":" + port,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	log.Printf("Authentication service running on port %s", port)
	log.Fatal(server.ListenAndServe())
}

// This is a **mock authentication service**, designed to provide JWT tokens
// for the ROI modeling service, simulating user authentication.
package main

import (
	"encoding/json"
	"net/http"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/gartstein/roimodeling/internal/roimodel/auth"
)

const (
	defaultPort   = "8081"       // Default port for the authentication service
	defaultSecret = "jwt_secret" // Secret for signing JWT
	defaultUserID = "12345"
)

// TokenResponse represents the response structure
type TokenResponse struct {
	Token string `json:"token"`
}

type tokenHandler struct {
	secret string
	logger *zap.Logger
}

// ServeHTTP issues a token for the user named by the "user" query parameter.
// Sessions are scoped by that subject.
func (h *tokenHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user")
	if userID == "" {
		userID = defaultUserID
	}

	token, err := auth.GenerateToken(userID, h.secret)
	if err != nil {
		h.logger.Error("failed to generate token", zap.Error(err))
		http.Error(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(TokenResponse{Token: token}); err != nil {
		h.logger.Error("failed to encode token", zap.Error(err))
	}
}

func main() {
	logger, _ := zap.NewProduction()
	defer func() { _ = logger.Sync() }()

	port := envOr("AUTH_PORT", defaultPort)
	mux := http.NewServeMux()
	mux.Handle("/token", &tokenHandler{
		secret: envOr("JWT_SECRET", defaultSecret),
		logger: logger,
	})

	server := &http.Server{
		Addr:              ":" + port,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Authentication service running", zap.String("port", port))
	if err := server.ListenAndServe(); err != nil {
		logger.Fatal("authentication service stopped", zap.Error(err))
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

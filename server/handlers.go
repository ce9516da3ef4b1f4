package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/status-im/proxy-chain/chain"
	"github.com/status-im/proxy-chain/jwt"
	"github.com/status-im/proxy-chain/manager"
)

type Handlers struct {
	manager manager.IManager
	signer  *jwt.Signer
}

func NewHandlers(m manager.IManager, signer *jwt.Signer) *Handlers {
	return &Handlers{manager: m, signer: signer}
}

// ChainInfo describes a running request in admin responses
type ChainInfo struct {
	ID           string    `json:"id"`
	State        string    `json:"state,omitempty"`
	Cursor       int       `json:"cursor"`
	Steps        int       `json:"steps"`
	RegisteredAt time.Time `json:"registered_at"`
	AgeSeconds   float64   `json:"age_seconds"`
}

type progress interface {
	State() chain.State
	Cursor() int
	Len() int
}

func describe(entry manager.Entry, now time.Time) ChainInfo {
	info := ChainInfo{
		ID:           entry.Request.ID(),
		Steps:        1,
		RegisteredAt: entry.RegisteredAt,
		AgeSeconds:   now.Sub(entry.RegisteredAt).Seconds(),
	}
	if p, ok := entry.Request.(progress); ok {
		info.State = p.State().String()
		info.Cursor = p.Cursor()
		info.Steps = p.Len()
	}
	return info
}

// ChainsHandler lists the running requests
func (h *Handlers) ChainsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	now := time.Now()
	entries := h.manager.Active()
	chains := make([]ChainInfo, 0, len(entries))
	for _, entry := range entries {
		chains = append(chains, describe(entry, now))
	}

	w.Header().Set("Content-Type", "application/json")
	response := map[string]interface{}{
		"count":  len(chains),
		"chains": chains,
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		slog.Error("failed to encode chains response", "error", err)
	}
}

// CancelHandler cancels the running request named by the id query parameter
func (h *Handlers) CancelHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id := r.URL.Query().Get("id")
	if id == "" {
		http.Error(w, "missing id", http.StatusBadRequest)
		return
	}

	if !h.manager.Cancel(id) {
		http.Error(w, "unknown id", http.StatusNotFound)
		return
	}

	slog.Info("chain cancelled via admin api", "id", id)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	if err := json.NewEncoder(w).Encode(map[string]string{"cancelled": id}); err != nil {
		slog.Error("failed to encode cancel response", "error", err)
	}
}

func (h *Handlers) HealthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	response := map[string]interface{}{
		"status": "ok",
		"active": len(h.manager.Active()),
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		slog.Error("failed to encode health response", "error", err)
	}
}

// VerifyHandler checks a bearer token issued for upstream requests
func (h *Handlers) VerifyHandler(w http.ResponseWriter, r *http.Request) {
	var tokenString string

	authHeader := r.Header.Get("Authorization")
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && parts[0] == "Bearer" {
			tokenString = parts[1]
		}
	}

	if tokenString == "" {
		tokenString = r.URL.Query().Get("token")
	}

	if tokenString == "" || h.signer == nil {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	claims, err := h.signer.Verify(tokenString)
	if err != nil {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	w.Header().Set("X-Request-Id", claims.RequestID)
	w.Header().Set("X-Subject", claims.Subject)
	w.WriteHeader(http.StatusOK)
}

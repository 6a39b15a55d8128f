package tally

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RegisterHTTP registers the debug console endpoints on a chi router.
// Read-only except /clear; everything serves the in-memory aggregates.
func (k *Keeper) RegisterHTTP(r chi.Router) {
	r.Get("/api/v1/players", k.handlePlayers)
	r.Get("/api/v1/dice", k.handleDice)
	r.Get("/api/v1/builds", k.handleBuilds)
	r.Get("/api/v1/stats", k.handleStats)
	r.Post("/api/v1/clear", k.handleClear)
}

func (k *Keeper) handlePlayers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, k.PlayersSnapshot())
}

func (k *Keeper) handleDice(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, k.DiceCounts())
}

func (k *Keeper) handleBuilds(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, k.BuildLog())
}

func (k *Keeper) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, k.Stats())
}

func (k *Keeper) handleClear(w http.ResponseWriter, r *http.Request) {
	k.Clear(r.Context())
	writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

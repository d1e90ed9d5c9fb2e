package main

import (
	"encoding/json"
	"net/http"
	"strconv"
	"sync"

	"campussim/internal/sim/campus"
)

type summonRequest struct {
	Actor           string `json:"actor"`
	Room            string `json:"room"`
	DurationMinutes int    `json:"duration_minutes"`
}

type overrideRequest struct {
	Actor  string `json:"actor"`
	Reason string `json:"reason"`
	Blocks []struct {
		Activity     string `json:"activity"`
		Start        string `json:"start"`
		Duration     string `json:"duration"`
		Room         string `json:"room"`
		TravelBuffer string `json:"travel_buffer"`
		Notes        string `json:"notes"`
	} `json:"blocks"`
}

type resolveRequest struct {
	AlertID string `json:"alert_id"`
}

type broadcastRequest struct {
	Message string `json:"message"`
}

// registerPrincipalHandlers mounts the principal control surface. All
// handlers take the simulation mutex since they mutate live state.
func registerPrincipalHandlers(mux *http.ServeMux, principal *campus.PrincipalControls, simMu *sync.Mutex) {
	mux.HandleFunc("/v1/principal/summon", func(rw http.ResponseWriter, r *http.Request) {
		var req summonRequest
		if !decodePost(rw, r, &req) {
			return
		}
		simMu.Lock()
		activity, err := principal.SummonActor(req.Actor, req.Room, req.DurationMinutes)
		simMu.Unlock()
		if err != nil {
			httpError(rw, http.StatusBadRequest, err)
			return
		}
		writeJSON(rw, map[string]any{
			"actor":    req.Actor,
			"activity": activity.Name,
			"room":     activity.Location,
			"duration": activity.Duration,
		})
	})

	mux.HandleFunc("/v1/principal/override", func(rw http.ResponseWriter, r *http.Request) {
		var req overrideRequest
		if !decodePost(rw, r, &req) {
			return
		}
		blocks := make([]campus.OverrideBlock, 0, len(req.Blocks))
		for _, b := range req.Blocks {
			blocks = append(blocks, campus.OverrideBlock{
				Activity:     b.Activity,
				Start:        b.Start,
				Duration:     b.Duration,
				Room:         b.Room,
				TravelBuffer: b.TravelBuffer,
				Notes:        b.Notes,
			})
		}
		simMu.Lock()
		plan, err := principal.OverrideSchedule(req.Actor, blocks, req.Reason)
		simMu.Unlock()
		if err != nil {
			httpError(rw, http.StatusBadRequest, err)
			return
		}
		writeJSON(rw, plan)
	})

	mux.HandleFunc("/v1/principal/resolve_alert", func(rw http.ResponseWriter, r *http.Request) {
		var req resolveRequest
		if !decodePost(rw, r, &req) {
			return
		}
		simMu.Lock()
		err := principal.ResolveAlert(req.AlertID)
		simMu.Unlock()
		if err != nil {
			httpError(rw, http.StatusNotFound, err)
			return
		}
		writeJSON(rw, map[string]string{"resolved": req.AlertID})
	})

	mux.HandleFunc("/v1/principal/broadcast", func(rw http.ResponseWriter, r *http.Request) {
		var req broadcastRequest
		if !decodePost(rw, r, &req) {
			return
		}
		simMu.Lock()
		principal.Broadcast(req.Message)
		simMu.Unlock()
		writeJSON(rw, map[string]string{"status": "ok"})
	})

	mux.HandleFunc("/v1/principal/overrides", func(rw http.ResponseWriter, r *http.Request) {
		limit := 0
		if v := r.URL.Query().Get("limit"); v != "" {
			limit, _ = strconv.Atoi(v)
		}
		simMu.Lock()
		records := principal.RecentOverrides(limit)
		simMu.Unlock()
		writeJSON(rw, records)
	})
}

func decodePost(rw http.ResponseWriter, r *http.Request, v any) bool {
	if r.Method != http.MethodPost {
		http.Error(rw, "method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		httpError(rw, http.StatusBadRequest, err)
		return false
	}
	return true
}

func httpError(rw http.ResponseWriter, code int, err error) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(code)
	_ = json.NewEncoder(rw).Encode(map[string]string{"error": err.Error()})
}

func writeJSON(rw http.ResponseWriter, v any) {
	rw.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(rw).Encode(v)
}

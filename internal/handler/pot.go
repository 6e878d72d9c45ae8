package handler

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/plothq/plot/internal/model"
	"github.com/plothq/plot/internal/store"
	"github.com/plothq/plot/internal/websocket"
)

type PotHandler struct {
	potStore       *store.PotStore
	householdStore *store.HouseholdStore
	hub            *websocket.Hub
}

func NewPotHandler(ps *store.PotStore, hs *store.HouseholdStore, hub *websocket.Hub) *PotHandler {
	return &PotHandler{potStore: ps, householdStore: hs, hub: hub}
}

func (h *PotHandler) broadcast(msg websocket.Message) {
	if h.hub != nil {
		h.hub.Broadcast(msg)
	}
}

type potRequest struct {
	Name          string  `json:"name"`
	CurrentAmount float64 `json:"current_amount"`
	TargetAmount  float64 `json:"target_amount"`
	TargetDate    *string `json:"target_date"`
}

func (h *PotHandler) List(w http.ResponseWriter, r *http.Request) {
	household, err := h.householdStore.Get()
	if err != nil || household == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "household not set up"})
		return
	}

	pots, err := h.potStore.List(household.ID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list pots"})
		return
	}
	if pots == nil {
		pots = []model.Pot{}
	}
	writeJSON(w, http.StatusOK, pots)
}

func (h *PotHandler) Create(w http.ResponseWriter, r *http.Request) {
	household, err := h.householdStore.Get()
	if err != nil || household == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "household not set up"})
		return
	}

	var req potRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}
	if req.CurrentAmount < 0 || req.TargetAmount < 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "amounts must not be negative"})
		return
	}

	pot, err := h.potStore.Create(household.ID, req.Name, req.CurrentAmount, req.TargetAmount, req.TargetDate)
	if err != nil {
		log.Printf("failed to create pot: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to create pot"})
		return
	}

	h.broadcast(websocket.NewMessage(websocket.EntityPot, "created", pot.ID, nil))

	writeJSON(w, http.StatusCreated, pot)
}

func (h *PotHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	existing, err := h.potStore.GetByID(id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get pot"})
		return
	}
	if existing == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "pot not found"})
		return
	}

	var req potRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}

	pot, err := h.potStore.Update(id, req.Name, req.TargetAmount, req.TargetDate)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to update pot"})
		return
	}

	h.broadcast(websocket.NewMessage(websocket.EntityPot, "updated", id, nil))

	writeJSON(w, http.StatusOK, pot)
}

// Complete marks a pot's goal as reached.
func (h *PotHandler) Complete(w http.ResponseWriter, r *http.Request) {
	h.setStatus(w, r, model.PotComplete, "completed")
}

// Reopen returns a completed pot to active saving.
func (h *PotHandler) Reopen(w http.ResponseWriter, r *http.Request) {
	h.setStatus(w, r, model.PotActive, "reopened")
}

func (h *PotHandler) setStatus(w http.ResponseWriter, r *http.Request, status model.PotStatus, action string) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	existing, err := h.potStore.GetByID(id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get pot"})
		return
	}
	if existing == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "pot not found"})
		return
	}

	pot, err := h.potStore.SetStatus(id, status)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to update pot"})
		return
	}

	h.broadcast(websocket.NewMessage(websocket.EntityPot, action, id, nil))

	writeJSON(w, http.StatusOK, pot)
}

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

type RepaymentHandler struct {
	repaymentStore *store.RepaymentStore
	householdStore *store.HouseholdStore
	hub            *websocket.Hub
}

func NewRepaymentHandler(rs *store.RepaymentStore, hs *store.HouseholdStore, hub *websocket.Hub) *RepaymentHandler {
	return &RepaymentHandler{repaymentStore: rs, householdStore: hs, hub: hub}
}

func (h *RepaymentHandler) broadcast(msg websocket.Message) {
	if h.hub != nil {
		h.hub.Broadcast(msg)
	}
}

type repaymentRequest struct {
	Name            string                `json:"name"`
	StartingBalance float64               `json:"starting_balance"`
	CurrentBalance  float64               `json:"current_balance"`
	TargetDate      *string               `json:"target_date"`
	InterestRate    *float64              `json:"interest_rate"`
	Status          model.RepaymentStatus `json:"status"`
}

func (h *RepaymentHandler) List(w http.ResponseWriter, r *http.Request) {
	household, err := h.householdStore.Get()
	if err != nil || household == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "household not set up"})
		return
	}

	repayments, err := h.repaymentStore.List(household.ID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list repayments"})
		return
	}
	if repayments == nil {
		repayments = []model.Repayment{}
	}
	writeJSON(w, http.StatusOK, repayments)
}

func (h *RepaymentHandler) Create(w http.ResponseWriter, r *http.Request) {
	household, err := h.householdStore.Get()
	if err != nil || household == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "household not set up"})
		return
	}

	var req repaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}
	if req.StartingBalance < 0 || req.CurrentBalance < 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "balances must not be negative"})
		return
	}
	if req.CurrentBalance == 0 {
		req.CurrentBalance = req.StartingBalance
	}

	repayment, err := h.repaymentStore.Create(household.ID, req.Name, req.StartingBalance, req.CurrentBalance, req.TargetDate, req.InterestRate)
	if err != nil {
		log.Printf("failed to create repayment: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to create repayment"})
		return
	}

	h.broadcast(websocket.NewMessage(websocket.EntityRepayment, "created", repayment.ID, nil))

	writeJSON(w, http.StatusCreated, repayment)
}

func (h *RepaymentHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	existing, err := h.repaymentStore.GetByID(id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get repayment"})
		return
	}
	if existing == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "repayment not found"})
		return
	}

	var req repaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}
	if req.Status == "" {
		req.Status = existing.Status
	}

	repayment, err := h.repaymentStore.Update(id, req.Name, req.CurrentBalance, req.TargetDate, req.InterestRate, req.Status)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to update repayment"})
		return
	}

	h.broadcast(websocket.NewMessage(websocket.EntityRepayment, "updated", id, nil))

	writeJSON(w, http.StatusOK, repayment)
}

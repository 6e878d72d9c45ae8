package handler

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/plothq/plot/internal/budget"
	"github.com/plothq/plot/internal/model"
	"github.com/plothq/plot/internal/store"
	"github.com/plothq/plot/internal/websocket"
)

type SeedHandler struct {
	seedStore      *store.SeedStore
	paycycleStore  *store.PaycycleStore
	householdStore *store.HouseholdStore
	hub            *websocket.Hub
}

func NewSeedHandler(ss *store.SeedStore, ps *store.PaycycleStore, hs *store.HouseholdStore, hub *websocket.Hub) *SeedHandler {
	return &SeedHandler{seedStore: ss, paycycleStore: ps, householdStore: hs, hub: hub}
}

func (h *SeedHandler) broadcast(msg websocket.Message) {
	if h.hub != nil {
		h.hub.Broadcast(msg)
	}
}

type seedRequest struct {
	PaycycleID        int64               `json:"paycycle_id"`
	Name              string              `json:"name"`
	Type              model.SeedType      `json:"type"`
	Amount            float64             `json:"amount"`
	PaymentSource     model.PaymentSource `json:"payment_source"`
	SplitRatio        *float64            `json:"split_ratio"`
	IsRecurring       bool                `json:"is_recurring"`
	DueDate           *string             `json:"due_date"`
	LinkedPotID       *int64              `json:"linked_pot_id"`
	LinkedRepaymentID *int64              `json:"linked_repayment_id"`
}

func (h *SeedHandler) validate(req *seedRequest, cycle *model.PayCycle) string {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return "name is required"
	}
	if !model.ValidSeedType(req.Type) {
		return "invalid seed type"
	}
	if req.Amount < 0 {
		return "amount must not be negative"
	}
	if !model.ValidPaymentSource(req.PaymentSource) {
		return "invalid payment source"
	}
	if req.SplitRatio != nil && (*req.SplitRatio < 0 || *req.SplitRatio > 1) {
		return "split_ratio must be between 0 and 1"
	}
	if req.DueDate != nil {
		if err := budget.ValidateDueDateInCycle(*req.DueDate, cycle.StartDate, cycle.EndDate); err != nil {
			return err.Error()
		}
	}
	return ""
}

func (h *SeedHandler) List(w http.ResponseWriter, r *http.Request) {
	cycleID, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	seeds, err := h.seedStore.ListByPaycycle(cycleID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list seeds"})
		return
	}
	if seeds == nil {
		seeds = []model.Seed{}
	}
	writeJSON(w, http.StatusOK, seeds)
}

func (h *SeedHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req seedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	cycle, err := h.paycycleStore.GetByID(req.PaycycleID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get paycycle"})
		return
	}
	if cycle == nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "paycycle not found"})
		return
	}

	if msg := h.validate(&req, cycle); msg != "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
		return
	}

	household, err := h.householdStore.GetByID(cycle.HouseholdID)
	if err != nil || household == nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get household"})
		return
	}

	amountMe, amountPartner := budget.SeedSplit(req.Amount, req.PaymentSource, req.SplitRatio, household.JointRatio)

	seed, err := h.seedStore.Create(model.Seed{
		HouseholdID:       household.ID,
		PaycycleID:        cycle.ID,
		Name:              req.Name,
		Type:              req.Type,
		Amount:            req.Amount,
		PaymentSource:     req.PaymentSource,
		SplitRatio:        req.SplitRatio,
		IsRecurring:       req.IsRecurring,
		DueDate:           req.DueDate,
		AmountMe:          amountMe,
		AmountPartner:     amountPartner,
		LinkedPotID:       req.LinkedPotID,
		LinkedRepaymentID: req.LinkedRepaymentID,
	})
	if err != nil {
		log.Printf("failed to create seed: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to create seed"})
		return
	}

	if err := h.paycycleStore.RecomputeAllocations(cycle.ID); err != nil {
		log.Printf("failed to recompute allocations: %v", err)
	}

	h.broadcast(websocket.NewMessage(websocket.EntitySeed, "created", seed.ID,
		map[string]any{"paycycle_id": cycle.ID}))

	writeJSON(w, http.StatusCreated, seed)
}

func (h *SeedHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	existing, err := h.seedStore.GetByID(id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get seed"})
		return
	}
	if existing == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "seed not found"})
		return
	}

	var req seedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	cycle, err := h.paycycleStore.GetByID(existing.PaycycleID)
	if err != nil || cycle == nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get paycycle"})
		return
	}

	if msg := h.validate(&req, cycle); msg != "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
		return
	}

	household, err := h.householdStore.GetByID(existing.HouseholdID)
	if err != nil || household == nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get household"})
		return
	}

	amountMe, amountPartner := budget.SeedSplit(req.Amount, req.PaymentSource, req.SplitRatio, household.JointRatio)

	seed, err := h.seedStore.Update(id, req.Name, req.Amount, req.PaymentSource, req.SplitRatio, req.IsRecurring, req.DueDate, amountMe, amountPartner)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to update seed"})
		return
	}

	if err := h.paycycleStore.RecomputeAllocations(existing.PaycycleID); err != nil {
		log.Printf("failed to recompute allocations: %v", err)
	}

	h.broadcast(websocket.NewMessage(websocket.EntitySeed, "updated", id,
		map[string]any{"paycycle_id": existing.PaycycleID}))

	writeJSON(w, http.StatusOK, seed)
}

func (h *SeedHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	existing, err := h.seedStore.GetByID(id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get seed"})
		return
	}
	if existing == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "seed not found"})
		return
	}

	if err := h.seedStore.Delete(id); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to delete seed"})
		return
	}

	if err := h.paycycleStore.RecomputeAllocations(existing.PaycycleID); err != nil {
		log.Printf("failed to recompute allocations: %v", err)
	}

	h.broadcast(websocket.NewMessage(websocket.EntitySeed, "deleted", id,
		map[string]any{"paycycle_id": existing.PaycycleID}))

	w.WriteHeader(http.StatusNoContent)
}

type payRequest struct {
	Payer store.Payer `json:"payer"`
}

func (h *SeedHandler) payer(r *http.Request) (store.Payer, bool) {
	var req payRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Payer == "" {
		// Default to settling the whole seed.
		return store.PayerBoth, true
	}
	switch req.Payer {
	case store.PayerMe, store.PayerPartner, store.PayerBoth:
		return req.Payer, true
	}
	return "", false
}

// Pay settles a seed (or one side of a joint seed) and applies any linked
// pot or repayment movement.
func (h *SeedHandler) Pay(w http.ResponseWriter, r *http.Request) {
	h.setPaid(w, r, true)
}

// Unpay reverses a settlement, including its linked pot or repayment movement.
func (h *SeedHandler) Unpay(w http.ResponseWriter, r *http.Request) {
	h.setPaid(w, r, false)
}

func (h *SeedHandler) setPaid(w http.ResponseWriter, r *http.Request, paid bool) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	payer, ok := h.payer(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payer"})
		return
	}

	existing, err := h.seedStore.GetByID(id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get seed"})
		return
	}
	if existing == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "seed not found"})
		return
	}

	var seed *model.Seed
	if paid {
		seed, err = h.seedStore.MarkPaid(id, payer)
	} else {
		seed, err = h.seedStore.UnmarkPaid(id, payer)
	}
	if err != nil {
		log.Printf("failed to set seed paid state: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to update seed"})
		return
	}

	if err := h.paycycleStore.RecomputeAllocations(existing.PaycycleID); err != nil {
		log.Printf("failed to recompute allocations: %v", err)
	}

	action := "paid"
	if !paid {
		action = "unpaid"
	}
	h.broadcast(websocket.NewMessage(websocket.EntitySeed, action, id,
		map[string]any{"paycycle_id": existing.PaycycleID}))

	writeJSON(w, http.StatusOK, seed)
}

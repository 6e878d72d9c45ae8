package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/plothq/plot/internal/blueprint"
	"github.com/plothq/plot/internal/budget"
	"github.com/plothq/plot/internal/model"
	"github.com/plothq/plot/internal/store"
	"github.com/plothq/plot/internal/websocket"
)

type PaycycleHandler struct {
	svc            *blueprint.Service
	paycycleStore  *store.PaycycleStore
	householdStore *store.HouseholdStore
	hub            *websocket.Hub
	logger         *slog.Logger
}

func NewPaycycleHandler(svc *blueprint.Service, ps *store.PaycycleStore, hs *store.HouseholdStore, hub *websocket.Hub, logger *slog.Logger) *PaycycleHandler {
	return &PaycycleHandler{svc: svc, paycycleStore: ps, householdStore: hs, hub: hub, logger: logger}
}

func (h *PaycycleHandler) broadcast(msg websocket.Message) {
	if h.hub != nil {
		h.hub.Broadcast(msg)
	}
}

func (h *PaycycleHandler) List(w http.ResponseWriter, r *http.Request) {
	household, err := h.householdStore.Get()
	if err != nil || household == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "household not set up"})
		return
	}

	cycles, err := h.paycycleStore.List(household.ID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list paycycles"})
		return
	}
	if cycles == nil {
		cycles = []model.PayCycle{}
	}
	writeJSON(w, http.StatusOK, cycles)
}

// Current serves the active cycle's full blueprint. Loading it runs the
// overdue sweep and allocation repair, so the response is always reconciled.
func (h *PaycycleHandler) Current(w http.ResponseWriter, r *http.Request) {
	bundle, err := h.svc.LoadActive()
	if err != nil {
		h.logger.Error("load active cycle", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load active cycle"})
		return
	}
	if bundle.OverdueSettled > 0 {
		h.broadcast(websocket.NewMessage(websocket.EntityPaycycle, "overdue_settled", bundle.PayCycle.ID,
			map[string]any{"count": bundle.OverdueSettled}))
	}
	writeJSON(w, http.StatusOK, bundle)
}

func (h *PaycycleHandler) GetBlueprint(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	bundle, err := h.svc.Load(id)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "paycycle not found"})
		return
	}
	writeJSON(w, http.StatusOK, h.svc.EnsureFreshAllocations(bundle))
}

// Create starts the household's first cycle, deriving its dates from the
// household's pay settings. Subsequent cycles come from CreateNext.
func (h *PaycycleHandler) Create(w http.ResponseWriter, r *http.Request) {
	household, err := h.householdStore.Get()
	if err != nil || household == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "household not set up"})
		return
	}

	active, err := h.paycycleStore.GetActive(household.ID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to check active cycle"})
		return
	}
	if active != nil {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "a cycle is already active"})
		return
	}

	start := budget.CycleStartDate(household.PayCycleType, household.PayDay, household.AnchorDate, time.Now())
	end, err := budget.CycleEndDate(household.PayCycleType, start, household.PayDay)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid pay cycle settings"})
		return
	}

	cycle, err := h.paycycleStore.Create(household.ID, "Paycycle "+start, model.CycleActive, start, end)
	if err != nil {
		h.logger.Error("create first cycle", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to create paycycle"})
		return
	}

	h.broadcast(websocket.NewMessage(websocket.EntityPaycycle, "created", cycle.ID, nil))

	writeJSON(w, http.StatusCreated, cycle)
}

// CreateNext creates the draft cycle that follows the given one, cloning its
// recurring seeds with rolled due dates.
func (h *PaycycleHandler) CreateNext(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	cycle, err := h.svc.CreateNextCycle(id, model.CycleDraft)
	if err != nil {
		h.logger.Error("create next cycle", "source_id", id, "error", err)
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	h.broadcast(websocket.NewMessage(websocket.EntityPaycycle, "created", cycle.ID, nil))

	writeJSON(w, http.StatusCreated, cycle)
}

// Resync re-derives the draft cycle's recurring seeds from the household's
// active cycle, picking up amount and split changes made since the draft was
// created.
func (h *PaycycleHandler) Resync(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	draft, err := h.paycycleStore.GetByID(id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get paycycle"})
		return
	}
	if draft == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "paycycle not found"})
		return
	}

	active, err := h.paycycleStore.GetActive(draft.HouseholdID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get active cycle"})
		return
	}
	if active == nil {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "no active cycle to resync from"})
		return
	}

	if err := h.svc.ResyncDraft(id, active.ID); err != nil {
		h.logger.Error("resync draft", "draft_id", id, "active_id", active.ID, "error", err)
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	h.broadcast(websocket.NewMessage(websocket.EntityPaycycle, "resynced", id, nil))

	bundle, err := h.svc.Load(id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load paycycle"})
		return
	}
	writeJSON(w, http.StatusOK, bundle)
}

// Activate promotes a draft cycle to active, closing the previous active one.
func (h *PaycycleHandler) Activate(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	cycle, err := h.paycycleStore.Activate(id)
	if err != nil {
		h.logger.Error("activate cycle", "paycycle_id", id, "error", err)
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	h.broadcast(websocket.NewMessage(websocket.EntityPaycycle, "activated", cycle.ID, nil))

	writeJSON(w, http.StatusOK, cycle)
}

// CloseRitual stamps the payday ritual as done for the cycle. The cycle's
// status is untouched; activation of the next cycle closes it.
func (h *PaycycleHandler) CloseRitual(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	if err := h.paycycleStore.CloseRitual(id); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	h.broadcast(websocket.NewMessage(websocket.EntityPaycycle, "ritual_closed", id, nil))

	cycle, err := h.paycycleStore.GetByID(id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get paycycle"})
		return
	}
	writeJSON(w, http.StatusOK, cycle)
}

// MarkOverdue runs the overdue settlement sweep on demand.
func (h *PaycycleHandler) MarkOverdue(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	bundle := h.svc.SweepOverdue(id)
	if bundle == nil {
		writeJSON(w, http.StatusOK, map[string]int{"overdue_settled": 0})
		return
	}

	h.broadcast(websocket.NewMessage(websocket.EntityPaycycle, "overdue_settled", id,
		map[string]any{"count": bundle.OverdueSettled}))

	writeJSON(w, http.StatusOK, bundle)
}

// Recompute rebuilds the cycle's stored aggregates from its seeds.
func (h *PaycycleHandler) Recompute(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	if err := h.paycycleStore.RecomputeAllocations(id); err != nil {
		h.logger.Error("recompute allocations", "paycycle_id", id, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to recompute allocations"})
		return
	}

	cycle, err := h.paycycleStore.GetByID(id)
	if err != nil || cycle == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "paycycle not found"})
		return
	}

	h.broadcast(websocket.NewMessage(websocket.EntityPaycycle, "updated", id, nil))

	writeJSON(w, http.StatusOK, cycle)
}

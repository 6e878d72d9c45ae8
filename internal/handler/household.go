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

type HouseholdHandler struct {
	householdStore *store.HouseholdStore
	hub            *websocket.Hub
}

func NewHouseholdHandler(hs *store.HouseholdStore, hub *websocket.Hub) *HouseholdHandler {
	return &HouseholdHandler{householdStore: hs, hub: hub}
}

func (h *HouseholdHandler) broadcast(msg websocket.Message) {
	if h.hub != nil {
		h.hub.Broadcast(msg)
	}
}

func (h *HouseholdHandler) Get(w http.ResponseWriter, r *http.Request) {
	household, err := h.householdStore.Get()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get household"})
		return
	}
	if household == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "household not set up"})
		return
	}
	writeJSON(w, http.StatusOK, household)
}

type createHouseholdRequest struct {
	Name      string `json:"name"`
	OwnerName string `json:"owner_name"`
	Currency  string `json:"currency"`
}

// Create handles first-run onboarding. A plot instance serves exactly one
// household, so a second create is rejected.
func (h *HouseholdHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createHouseholdRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.OwnerName = strings.TrimSpace(req.OwnerName)
	if req.Name == "" || req.OwnerName == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name and owner_name are required"})
		return
	}

	existing, err := h.householdStore.Get()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to check household"})
		return
	}
	if existing != nil {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "household already exists"})
		return
	}

	household, err := h.householdStore.Create(req.Name, req.OwnerName, req.Currency)
	if err != nil {
		log.Printf("failed to create household: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to create household"})
		return
	}

	writeJSON(w, http.StatusCreated, household)
}

type settingsRequest struct {
	NeedsPercent   int                `json:"needs_percent"`
	WantsPercent   int                `json:"wants_percent"`
	SavingsPercent int                `json:"savings_percent"`
	RepayPercent   int                `json:"repay_percent"`
	JointRatio     float64            `json:"joint_ratio"`
	Currency       string             `json:"currency"`
	PayCycleType   model.PayCycleType `json:"pay_cycle_type"`
	PayDay         *int               `json:"pay_day"`
	AnchorDate     *string            `json:"anchor_date"`
}

func (h *HouseholdHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	household, err := h.householdStore.Get()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get household"})
		return
	}
	if household == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "household not set up"})
		return
	}

	var req settingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	if err := budget.ValidatePercentSplit(req.NeedsPercent, req.WantsPercent, req.SavingsPercent, req.RepayPercent); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if req.JointRatio < 0 || req.JointRatio > 1 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "joint_ratio must be between 0 and 1"})
		return
	}
	switch req.PayCycleType {
	case model.PayCycleSpecificDate:
		if req.PayDay == nil || *req.PayDay < 1 || *req.PayDay > 31 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "pay_day must be between 1 and 31"})
			return
		}
	case model.PayCycleEvery4Weeks:
		if req.AnchorDate == nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "anchor_date is required for every_4_weeks"})
			return
		}
	case model.PayCycleLastWorkingDay:
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid pay_cycle_type"})
		return
	}
	if req.Currency == "" {
		req.Currency = household.Currency
	}

	updated, err := h.householdStore.UpdateSettings(household.ID,
		req.NeedsPercent, req.WantsPercent, req.SavingsPercent, req.RepayPercent,
		req.JointRatio, req.Currency, req.PayCycleType, req.PayDay, req.AnchorDate)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to update settings"})
		return
	}

	h.broadcast(websocket.NewMessage(websocket.EntityHousehold, "updated", updated.ID, nil))

	writeJSON(w, http.StatusOK, updated)
}

// CreateInvite issues a one-time code the partner uses to join. The plaintext
// code appears only in this response.
func (h *HouseholdHandler) CreateInvite(w http.ResponseWriter, r *http.Request) {
	household, err := h.householdStore.Get()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get household"})
		return
	}
	if household == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "household not set up"})
		return
	}
	if household.HasPartner() {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "partner already joined"})
		return
	}

	code, err := h.householdStore.CreatePartnerInvite(household.ID)
	if err != nil {
		log.Printf("failed to create invite: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to create invite"})
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"invite_code": code})
}

type acceptInviteRequest struct {
	InviteCode  string `json:"invite_code"`
	PartnerName string `json:"partner_name"`
}

func (h *HouseholdHandler) AcceptInvite(w http.ResponseWriter, r *http.Request) {
	household, err := h.householdStore.Get()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get household"})
		return
	}
	if household == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "household not set up"})
		return
	}

	var req acceptInviteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	req.PartnerName = strings.TrimSpace(req.PartnerName)
	if req.InviteCode == "" || req.PartnerName == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invite_code and partner_name are required"})
		return
	}

	if err := h.householdStore.AcceptPartnerInvite(household.ID, req.InviteCode, req.PartnerName); err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid invite code"})
		return
	}

	h.broadcast(websocket.NewMessage(websocket.EntityHousehold, "partner_joined", household.ID, nil))

	updated, err := h.householdStore.GetByID(household.ID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get household"})
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

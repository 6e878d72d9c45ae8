package handler

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/plothq/plot/internal/model"
	"github.com/plothq/plot/internal/store"
	"github.com/plothq/plot/internal/task"
	"github.com/plothq/plot/internal/websocket"
)

type TaskHandler struct {
	taskStore      *store.TaskStore
	householdStore *store.HouseholdStore
	hub            *websocket.Hub
}

func NewTaskHandler(ts *store.TaskStore, hs *store.HouseholdStore, hub *websocket.Hub) *TaskHandler {
	return &TaskHandler{taskStore: ts, householdStore: hs, hub: hub}
}

func (h *TaskHandler) broadcast(msg websocket.Message) {
	if h.hub != nil {
		h.hub.Broadcast(msg)
	}
}

type taskRequest struct {
	Title       string             `json:"title"`
	AssignedTo  model.TaskAssignee `json:"assigned_to"`
	EffortLevel model.EffortLevel  `json:"effort_level"`
	DueDate     *string            `json:"due_date"`
}

func (r *taskRequest) validate() string {
	r.Title = strings.TrimSpace(r.Title)
	if r.Title == "" {
		return "title is required"
	}
	if r.AssignedTo == "" {
		r.AssignedTo = model.AssigneeUnassigned
	}
	if !model.ValidTaskAssignee(r.AssignedTo) {
		return "invalid assignee"
	}
	if r.EffortLevel == "" {
		r.EffortLevel = model.EffortQuick
	}
	if !model.ValidEffortLevel(r.EffortLevel) {
		return "invalid effort level"
	}
	return ""
}

func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	household, err := h.householdStore.Get()
	if err != nil || household == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "household not set up"})
		return
	}

	tasks, err := h.taskStore.List(household.ID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list tasks"})
		return
	}
	if tasks == nil {
		tasks = []model.Task{}
	}
	writeJSON(w, http.StatusOK, tasks)
}

func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	household, err := h.householdStore.Get()
	if err != nil || household == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "household not set up"})
		return
	}

	var req taskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	if msg := req.validate(); msg != "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
		return
	}

	t, err := h.taskStore.Create(household.ID, req.Title, req.AssignedTo, req.EffortLevel, req.DueDate)
	if err != nil {
		log.Printf("failed to create task: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to create task"})
		return
	}

	h.broadcast(websocket.NewMessage(websocket.EntityTask, "created", t.ID, nil))

	writeJSON(w, http.StatusCreated, t)
}

func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	existing, err := h.taskStore.GetByID(id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get task"})
		return
	}
	if existing == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "task not found"})
		return
	}

	var req taskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	if msg := req.validate(); msg != "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
		return
	}

	t, err := h.taskStore.Update(id, req.Title, req.AssignedTo, req.EffortLevel, req.DueDate)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to update task"})
		return
	}

	h.broadcast(websocket.NewMessage(websocket.EntityTask, "updated", id, nil))

	writeJSON(w, http.StatusOK, t)
}

func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	existing, err := h.taskStore.GetByID(id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get task"})
		return
	}
	if existing == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "task not found"})
		return
	}

	if err := h.taskStore.Delete(id); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to delete task"})
		return
	}

	h.broadcast(websocket.NewMessage(websocket.EntityTask, "deleted", id, nil))

	w.WriteHeader(http.StatusNoContent)
}

func (h *TaskHandler) Complete(w http.ResponseWriter, r *http.Request) {
	h.setDone(w, r, true)
}

func (h *TaskHandler) Uncomplete(w http.ResponseWriter, r *http.Request) {
	h.setDone(w, r, false)
}

func (h *TaskHandler) setDone(w http.ResponseWriter, r *http.Request, done bool) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	existing, err := h.taskStore.GetByID(id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get task"})
		return
	}
	if existing == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "task not found"})
		return
	}

	var t *model.Task
	var action string
	if done {
		t, err = h.taskStore.Complete(id)
		action = "completed"
	} else {
		t, err = h.taskStore.Uncomplete(id)
		action = "uncompleted"
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to update task"})
		return
	}

	h.broadcast(websocket.NewMessage(websocket.EntityTask, action, id, nil))

	writeJSON(w, http.StatusOK, t)
}

// Fairness reports the weighted split of completed tasks between the two
// household members. The optional days query parameter defaults to 30.
func (h *TaskHandler) Fairness(w http.ResponseWriter, r *http.Request) {
	household, err := h.householdStore.Get()
	if err != nil || household == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "household not set up"})
		return
	}

	days := 30
	if v := r.URL.Query().Get("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "days must be a positive integer"})
			return
		}
		days = n
	}

	tasks, err := h.taskStore.List(household.ID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list tasks"})
		return
	}

	writeJSON(w, http.StatusOK, task.ComputeFairness(tasks, days, task.DefaultPolicy()))
}

package model

import "time"

type TaskStatus string

const (
	TaskTodo TaskStatus = "todo"
	TaskDone TaskStatus = "done"
)

type TaskAssignee string

const (
	AssigneeMe         TaskAssignee = "me"
	AssigneePartner    TaskAssignee = "partner"
	AssigneeBoth       TaskAssignee = "both"
	AssigneeUnassigned TaskAssignee = "unassigned"
)

type EffortLevel string

const (
	EffortQuick    EffortLevel = "quick"
	EffortMedium   EffortLevel = "medium"
	EffortInvolved EffortLevel = "involved"
)

type Task struct {
	ID          int64        `json:"id"`
	HouseholdID int64        `json:"household_id"`
	Title       string       `json:"title"`
	AssignedTo  TaskAssignee `json:"assigned_to"`
	Status      TaskStatus   `json:"status"`
	EffortLevel EffortLevel  `json:"effort_level"`
	DueDate     *string      `json:"due_date"`
	CompletedAt *time.Time   `json:"completed_at"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// ValidTaskAssignee reports whether a is a recognized assignee value.
func ValidTaskAssignee(a TaskAssignee) bool {
	switch a {
	case AssigneeMe, AssigneePartner, AssigneeBoth, AssigneeUnassigned:
		return true
	}
	return false
}

// ValidEffortLevel reports whether e is a recognized effort level.
func ValidEffortLevel(e EffortLevel) bool {
	switch e {
	case EffortQuick, EffortMedium, EffortInvolved:
		return true
	}
	return false
}

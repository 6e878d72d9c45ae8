package store

import (
	"database/sql"
	"fmt"

	"github.com/plothq/plot/internal/model"
)

type TaskStore struct {
	db *sql.DB
}

func NewTaskStore(db *sql.DB) *TaskStore {
	return &TaskStore{db: db}
}

const taskCols = `id, household_id, title, assigned_to, status, effort_level, due_date, completed_at, created_at, updated_at`

func scanTask(scanner interface{ Scan(...any) error }) (*model.Task, error) {
	var t model.Task
	var dueDate sql.NullString
	var completedAt sql.NullTime

	err := scanner.Scan(
		&t.ID, &t.HouseholdID, &t.Title, &t.AssignedTo, &t.Status, &t.EffortLevel,
		&dueDate, &completedAt, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if dueDate.Valid {
		t.DueDate = &dueDate.String
	}
	if completedAt.Valid {
		t.CompletedAt = &completedAt.Time
	}
	return &t, nil
}

func (s *TaskStore) List(householdID int64) ([]model.Task, error) {
	rows, err := s.db.Query(
		`SELECT `+taskCols+` FROM tasks WHERE household_id = ? ORDER BY status ASC, due_date IS NULL, due_date ASC, title ASC`,
		householdID,
	)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []model.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

func (s *TaskStore) GetByID(id int64) (*model.Task, error) {
	row := s.db.QueryRow(`SELECT `+taskCols+` FROM tasks WHERE id = ?`, id)
	t, err := scanTask(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	return t, nil
}

func (s *TaskStore) Create(householdID int64, title string, assignedTo model.TaskAssignee, effort model.EffortLevel, dueDate *string) (*model.Task, error) {
	var due sql.NullString
	if dueDate != nil {
		due = sql.NullString{String: *dueDate, Valid: true}
	}

	result, err := s.db.Exec(
		`INSERT INTO tasks (household_id, title, assigned_to, effort_level, due_date) VALUES (?, ?, ?, ?, ?)`,
		householdID, title, assignedTo, effort, due,
	)
	if err != nil {
		return nil, fmt.Errorf("insert task: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *TaskStore) Update(id int64, title string, assignedTo model.TaskAssignee, effort model.EffortLevel, dueDate *string) (*model.Task, error) {
	var due sql.NullString
	if dueDate != nil {
		due = sql.NullString{String: *dueDate, Valid: true}
	}

	_, err := s.db.Exec(
		`UPDATE tasks SET title = ?, assigned_to = ?, effort_level = ?, due_date = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		title, assignedTo, effort, due, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}
	return s.GetByID(id)
}

func (s *TaskStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return nil
}

// Complete marks a task done and stamps the completion time.
func (s *TaskStore) Complete(id int64) (*model.Task, error) {
	_, err := s.db.Exec(
		`UPDATE tasks SET status = 'done', completed_at = CURRENT_TIMESTAMP, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("complete task: %w", err)
	}
	return s.GetByID(id)
}

// Uncomplete returns a done task to the todo list and clears its timestamp.
func (s *TaskStore) Uncomplete(id int64) (*model.Task, error) {
	_, err := s.db.Exec(
		`UPDATE tasks SET status = 'todo', completed_at = NULL, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("uncomplete task: %w", err)
	}
	return s.GetByID(id)
}

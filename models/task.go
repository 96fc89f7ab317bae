package models

import "time"

type TaskStatus string

const (
	StatusTodo       TaskStatus = "TODO"
	StatusInProgress TaskStatus = "IN_PROGRESS"
	StatusDone       TaskStatus = "DONE"
)

// ParseTaskStatus accepts exactly the wire values; matching is case-sensitive.
func ParseTaskStatus(s string) (TaskStatus, bool) {
	switch TaskStatus(s) {
	case StatusTodo, StatusInProgress, StatusDone:
		return TaskStatus(s), true
	}
	return "", false
}

type Task struct {
	ID          string     `db:"id" json:"id"`
	ProjectID   string     `db:"project_id" json:"project"`
	Title       string     `db:"title" json:"title"`
	Description string     `db:"description" json:"description"`
	Status      TaskStatus `db:"status" json:"status"`
	AssigneeID  *string    `db:"assignee_id" json:"assignee"`
	Subtasks    []Subtask  `db:"subtasks" json:"subtasks"`
	CreatedAt   time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updatedAt"`
}

type Subtask struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	IsCompleted bool   `json:"isCompleted"`
}

// Subtask returns the subtask with the given id, or nil.
func (t *Task) Subtask(id string) *Subtask {
	for i := range t.Subtasks {
		if t.Subtasks[i].ID == id {
			return &t.Subtasks[i]
		}
	}
	return nil
}

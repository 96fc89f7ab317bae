// Package store persists users, projects and tasks.
//
// Every method that touches more than one record (project creation with its
// admin membership, cascade deletes, task create-and-link, subtask
// read-modify-write) is atomic: callers never observe half of it.
package store

import (
	"context"
	"errors"
	"fmt"
	"projectcamp/models"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")

	ErrSubtaskNotFound = fmt.Errorf("subtask %w", ErrNotFound)
)

type Store interface {
	// Users. Emails are expected lowercase; uniqueness of email and username
	// is enforced and reported as ErrConflict.
	CreateUser(ctx context.Context, user *models.User) error
	UpdateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByVerificationToken(ctx context.Context, hashedToken string) (*models.User, error)
	GetUserByResetToken(ctx context.Context, hashedToken string) (*models.User, error)
	// GetPublicUsers returns the users in the order of ids, skipping unknown ids.
	GetPublicUsers(ctx context.Context, ids []string) ([]models.PublicUser, error)

	// Projects. CreateProject records the admin as the first member.
	CreateProject(ctx context.Context, project *models.Project) error
	GetProject(ctx context.Context, id string) (*models.Project, error)
	ListProjectsForUser(ctx context.Context, userID string) ([]models.Project, error)
	UpdateProject(ctx context.Context, id string, update models.ProjectUpdate) (*models.Project, error)
	// AddMember is a set insert: adding an existing member is a no-op.
	AddMember(ctx context.Context, projectID, userID string) error
	UpdateNotes(ctx context.Context, projectID, notes string) (string, error)
	// DeleteProject removes the project's tasks, then the project.
	DeleteProject(ctx context.Context, id string) error

	// Tasks. CreateTask inserts the task and appends it to its project's task
	// list; it fails with ErrNotFound when the project does not exist.
	CreateTask(ctx context.Context, task *models.Task) error
	GetTask(ctx context.Context, id string) (*models.Task, error)
	ListTasksByProject(ctx context.Context, projectID string) ([]models.Task, error)
	UpdateTaskStatus(ctx context.Context, id string, status models.TaskStatus) (*models.Task, error)
	// DeleteTask removes the task from its project's task list, then deletes it.
	DeleteTask(ctx context.Context, id string) error
	AddSubtask(ctx context.Context, taskID string, subtask models.Subtask) (*models.Task, error)
	// ToggleSubtask flips IsCompleted; a missing subtask is ErrSubtaskNotFound.
	ToggleSubtask(ctx context.Context, taskID, subtaskID string) (*models.Task, error)

	Ping(ctx context.Context) error
}

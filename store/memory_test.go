package store_test

import (
	"context"
	"errors"
	"projectcamp/models"
	"projectcamp/store"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ store.Store = (*store.Memory)(nil)
var _ store.Store = (*store.Postgres)(nil)

func newProject(t *testing.T, s store.Store, admin string) *models.Project {
	t.Helper()
	p := &models.Project{ID: uuid.NewString(), Name: "Alpha", Description: "d", AdminID: admin, CreatedAt: time.Now()}
	require.NoError(t, s.CreateProject(context.Background(), p))
	return p
}

func newTask(t *testing.T, s store.Store, projectID string) *models.Task {
	t.Helper()
	task := &models.Task{ID: uuid.NewString(), ProjectID: projectID, Title: "T", Status: models.StatusTodo}
	require.NoError(t, s.CreateTask(context.Background(), task))
	return task
}

func TestMemoryUsersAreUnique(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory()
	require.NoError(t, s.CreateUser(ctx, &models.User{ID: "u1", Email: "a@example.com", Username: "alice"}))

	err := s.CreateUser(ctx, &models.User{ID: "u2", Email: "a@example.com", Username: "other"})
	assert.True(t, errors.Is(err, store.ErrConflict))
	err = s.CreateUser(ctx, &models.User{ID: "u2", Email: "b@example.com", Username: "alice"})
	assert.True(t, errors.Is(err, store.ErrConflict))

	u, err := s.GetUserByUsername(ctx, "alice")
	require.NoError(t, err)
	u.Email = "mutated@example.com"
	again, err := s.GetUserByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", again.Email, "reads return copies")

	_, err = s.GetUserByVerificationToken(ctx, "")
	assert.True(t, errors.Is(err, store.ErrNotFound))
}

func TestMemoryCreateProjectRecordsAdmin(t *testing.T) {
	s := store.NewMemory()
	p := newProject(t, s, "alice")

	assert.Equal(t, []string{"alice"}, p.Members)
	got, err := s.GetProject(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice"}, got.Members)
	assert.Equal(t, []string{}, got.Tasks)
}

func TestMemoryCreateTaskNeedsProject(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory()

	err := s.CreateTask(ctx, &models.Task{ID: uuid.NewString(), ProjectID: uuid.NewString(), Title: "orphan"})
	assert.True(t, errors.Is(err, store.ErrNotFound))

	p := newProject(t, s, "alice")
	task := newTask(t, s, p.ID)
	got, err := s.GetProject(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{task.ID}, got.Tasks)
}

func TestMemoryDeleteProjectCascades(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory()
	p := newProject(t, s, "alice")
	other := newProject(t, s, "alice")
	doomed := newTask(t, s, p.ID)
	kept := newTask(t, s, other.ID)

	require.NoError(t, s.DeleteProject(ctx, p.ID))

	_, err := s.GetTask(ctx, doomed.ID)
	assert.True(t, errors.Is(err, store.ErrNotFound))
	_, err = s.GetTask(ctx, kept.ID)
	assert.NoError(t, err)
	err = s.DeleteProject(ctx, p.ID)
	assert.True(t, errors.Is(err, store.ErrNotFound))
}

func TestMemoryDeleteTaskUnlinks(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory()
	p := newProject(t, s, "alice")
	t1 := newTask(t, s, p.ID)
	t2 := newTask(t, s, p.ID)

	require.NoError(t, s.DeleteTask(ctx, t1.ID))

	got, err := s.GetProject(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{t2.ID}, got.Tasks)
	tasks, err := s.ListTasksByProject(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, t2.ID, tasks[0].ID)
}

func TestMemorySubtasks(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory()
	p := newProject(t, s, "alice")
	task := newTask(t, s, p.ID)

	withSub, err := s.AddSubtask(ctx, task.ID, models.Subtask{ID: "s1", Title: "step"})
	require.NoError(t, err)
	require.Len(t, withSub.Subtasks, 1)

	toggled, err := s.ToggleSubtask(ctx, task.ID, "s1")
	require.NoError(t, err)
	assert.True(t, toggled.Subtasks[0].IsCompleted)
	toggled, err = s.ToggleSubtask(ctx, task.ID, "s1")
	require.NoError(t, err)
	assert.False(t, toggled.Subtasks[0].IsCompleted)

	_, err = s.ToggleSubtask(ctx, task.ID, "missing")
	assert.True(t, errors.Is(err, store.ErrSubtaskNotFound))
	assert.True(t, errors.Is(err, store.ErrNotFound))
}

func TestMemoryUpdateProjectLeavesNilFields(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory()
	p := newProject(t, s, "alice")
	name := "Beta"

	got, err := s.UpdateProject(ctx, p.ID, models.ProjectUpdate{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Beta", got.Name)
	assert.Equal(t, "d", got.Description)

	_, err = s.UpdateProject(ctx, uuid.NewString(), models.ProjectUpdate{Name: &name})
	assert.True(t, errors.Is(err, store.ErrNotFound))
}

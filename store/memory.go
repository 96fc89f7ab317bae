package store

import (
	"context"
	"fmt"
	"projectcamp/models"
	"slices"
	"sync"
	"time"
)

// Memory is a Store held in process memory. It backs the test suites and
// local runs without a DATABASE_URL. All reads return copies.
type Memory struct {
	mu       sync.RWMutex
	users    map[string]*models.User
	projects map[string]*models.Project
	tasks    map[string]*models.Task
	// creation order, used for newest-first listing
	projectSeq map[string]int
	seq        int
	now        func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		users:      map[string]*models.User{},
		projects:   map[string]*models.Project{},
		tasks:      map[string]*models.Task{},
		projectSeq: map[string]int{},
		now:        time.Now,
	}
}

func copyUser(u *models.User) *models.User {
	c := *u
	return &c
}

func copyProject(p *models.Project) *models.Project {
	c := *p
	c.Members = slices.Clone(p.Members)
	c.Tasks = slices.Clone(p.Tasks)
	if c.Tasks == nil {
		c.Tasks = []string{}
	}
	return &c
}

func copyTask(t *models.Task) *models.Task {
	c := *t
	c.Subtasks = slices.Clone(t.Subtasks)
	if c.Subtasks == nil {
		c.Subtasks = []models.Subtask{}
	}
	if t.AssigneeID != nil {
		a := *t.AssigneeID
		c.AssigneeID = &a
	}
	return &c
}

func (m *Memory) CreateUser(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == user.Email || u.Username == user.Username {
			return fmt.Errorf("creating user %s: %w", user.Email, ErrConflict)
		}
	}
	m.users[user.ID] = copyUser(user)
	return nil
}

func (m *Memory) UpdateUser(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[user.ID]; !ok {
		return fmt.Errorf("user %s: %w", user.ID, ErrNotFound)
	}
	for id, u := range m.users {
		if id != user.ID && (u.Email == user.Email || u.Username == user.Username) {
			return fmt.Errorf("updating user %s: %w", user.ID, ErrConflict)
		}
	}
	c := copyUser(user)
	c.UpdatedAt = m.now()
	m.users[user.ID] = c
	return nil
}

func (m *Memory) findUser(match func(*models.User) bool) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if match(u) {
			return copyUser(u), nil
		}
	}
	return nil, fmt.Errorf("user: %w", ErrNotFound)
}

func (m *Memory) GetUserByID(_ context.Context, id string) (*models.User, error) {
	return m.findUser(func(u *models.User) bool { return u.ID == id })
}

func (m *Memory) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	return m.findUser(func(u *models.User) bool { return u.Email == email })
}

func (m *Memory) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	return m.findUser(func(u *models.User) bool { return u.Username == username })
}

func (m *Memory) GetUserByVerificationToken(_ context.Context, hashedToken string) (*models.User, error) {
	if hashedToken == "" {
		return nil, fmt.Errorf("user: %w", ErrNotFound)
	}
	return m.findUser(func(u *models.User) bool { return u.EmailVerificationToken == hashedToken })
}

func (m *Memory) GetUserByResetToken(_ context.Context, hashedToken string) (*models.User, error) {
	if hashedToken == "" {
		return nil, fmt.Errorf("user: %w", ErrNotFound)
	}
	return m.findUser(func(u *models.User) bool { return u.ForgotPasswordToken == hashedToken })
}

func (m *Memory) GetPublicUsers(_ context.Context, ids []string) ([]models.PublicUser, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.PublicUser, 0, len(ids))
	for _, id := range ids {
		if u, ok := m.users[id]; ok {
			out = append(out, u.Public())
		}
	}
	return out, nil
}

func (m *Memory) CreateProject(_ context.Context, project *models.Project) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := copyProject(project)
	if !slices.Contains(c.Members, c.AdminID) {
		c.Members = append([]string{c.AdminID}, c.Members...)
	}
	m.projects[c.ID] = c
	m.seq++
	m.projectSeq[c.ID] = m.seq
	project.Members = slices.Clone(c.Members)
	project.Tasks = slices.Clone(c.Tasks)
	return nil
}

func (m *Memory) GetProject(_ context.Context, id string) (*models.Project, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.projects[id]
	if !ok {
		return nil, fmt.Errorf("project %s: %w", id, ErrNotFound)
	}
	return copyProject(p), nil
}

func (m *Memory) ListProjectsForUser(_ context.Context, userID string) ([]models.Project, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.Project
	for _, p := range m.projects {
		if p.AdminID == userID || slices.Contains(p.Members, userID) {
			out = append(out, *copyProject(p))
		}
	}
	slices.SortFunc(out, func(a, b models.Project) int {
		return m.projectSeq[b.ID] - m.projectSeq[a.ID]
	})
	return out, nil
}

func (m *Memory) UpdateProject(_ context.Context, id string, update models.ProjectUpdate) (*models.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.projects[id]
	if !ok {
		return nil, fmt.Errorf("project %s: %w", id, ErrNotFound)
	}
	if update.Name != nil {
		p.Name = *update.Name
	}
	if update.Description != nil {
		p.Description = *update.Description
	}
	p.UpdatedAt = m.now()
	return copyProject(p), nil
}

func (m *Memory) AddMember(_ context.Context, projectID, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.projects[projectID]
	if !ok {
		return fmt.Errorf("project %s: %w", projectID, ErrNotFound)
	}
	if !slices.Contains(p.Members, userID) {
		p.Members = append(p.Members, userID)
		p.UpdatedAt = m.now()
	}
	return nil
}

func (m *Memory) UpdateNotes(_ context.Context, projectID, notes string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.projects[projectID]
	if !ok {
		return "", fmt.Errorf("project %s: %w", projectID, ErrNotFound)
	}
	p.Notes = notes
	p.UpdatedAt = m.now()
	return p.Notes, nil
}

func (m *Memory) DeleteProject(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.projects[id]; !ok {
		return fmt.Errorf("project %s: %w", id, ErrNotFound)
	}
	for taskID, t := range m.tasks {
		if t.ProjectID == id {
			delete(m.tasks, taskID)
		}
	}
	delete(m.projects, id)
	delete(m.projectSeq, id)
	return nil
}

func (m *Memory) CreateTask(_ context.Context, task *models.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.projects[task.ProjectID]
	if !ok {
		return fmt.Errorf("project %s: %w", task.ProjectID, ErrNotFound)
	}
	m.tasks[task.ID] = copyTask(task)
	p.Tasks = append(p.Tasks, task.ID)
	return nil
}

func (m *Memory) GetTask(_ context.Context, id string) (*models.Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tasks[id]
	if !ok {
		return nil, fmt.Errorf("task %s: %w", id, ErrNotFound)
	}
	return copyTask(t), nil
}

func (m *Memory) ListTasksByProject(_ context.Context, projectID string) ([]models.Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.projects[projectID]
	if !ok {
		return nil, fmt.Errorf("project %s: %w", projectID, ErrNotFound)
	}
	out := make([]models.Task, 0, len(p.Tasks))
	for _, id := range p.Tasks {
		if t, ok := m.tasks[id]; ok {
			out = append(out, *copyTask(t))
		}
	}
	return out, nil
}

func (m *Memory) UpdateTaskStatus(_ context.Context, id string, status models.TaskStatus) (*models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok {
		return nil, fmt.Errorf("task %s: %w", id, ErrNotFound)
	}
	t.Status = status
	t.UpdatedAt = m.now()
	return copyTask(t), nil
}

func (m *Memory) DeleteTask(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok {
		return fmt.Errorf("task %s: %w", id, ErrNotFound)
	}
	if p, ok := m.projects[t.ProjectID]; ok {
		p.Tasks = slices.DeleteFunc(p.Tasks, func(taskID string) bool { return taskID == id })
	}
	delete(m.tasks, id)
	return nil
}

func (m *Memory) AddSubtask(_ context.Context, taskID string, subtask models.Subtask) (*models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[taskID]
	if !ok {
		return nil, fmt.Errorf("task %s: %w", taskID, ErrNotFound)
	}
	t.Subtasks = append(t.Subtasks, subtask)
	t.UpdatedAt = m.now()
	return copyTask(t), nil
}

func (m *Memory) ToggleSubtask(_ context.Context, taskID, subtaskID string) (*models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[taskID]
	if !ok {
		return nil, fmt.Errorf("task %s: %w", taskID, ErrNotFound)
	}
	st := t.Subtask(subtaskID)
	if st == nil {
		return nil, fmt.Errorf("task %s: %w", taskID, ErrSubtaskNotFound)
	}
	st.IsCompleted = !st.IsCompleted
	t.UpdatedAt = m.now()
	return copyTask(t), nil
}

func (m *Memory) Ping(context.Context) error { return nil }

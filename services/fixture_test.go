package services_test

import (
	"context"
	"path"
	"projectcamp/auth"
	"projectcamp/mailer"
	"projectcamp/models"
	"projectcamp/services"
	"projectcamp/store"
	"projectcamp/utils"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

const (
	baseURL  = "http://camp.test"
	password = "Secret#123"
)

type recordingMailer struct {
	mu   sync.Mutex
	sent []mailer.Message
}

func (m *recordingMailer) Send(_ context.Context, msg mailer.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return nil
}

func (m *recordingMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

// lastToken returns the token at the end of the link in the newest message.
func (m *recordingMailer) lastToken(t *testing.T) string {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	require.NotEmpty(t, m.sent, "no email was sent")
	for _, field := range strings.Fields(m.sent[len(m.sent)-1].PlainText) {
		if strings.HasPrefix(field, baseURL) {
			return path.Base(field)
		}
	}
	t.Fatal("no link in the last email")
	return ""
}

type fixture struct {
	store    *store.Memory
	sessions *utils.MemorySessionStore
	mail     *recordingMailer
	auth     *services.AuthService
	projects *services.ProjectService
	tasks    *services.TaskService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	issuer, err := auth.NewTokenIssuer("test-secret", 0, 0)
	require.NoError(t, err)

	f := &fixture{
		store:    store.NewMemory(),
		sessions: utils.NewMemorySessionStore(),
		mail:     &recordingMailer{},
	}
	f.auth = services.NewAuthService(f.store, f.sessions, issuer, f.mail, baseURL)
	f.projects = services.NewProjectService(f.store)
	f.tasks = services.NewTaskService(f.store)
	return f
}

func (f *fixture) register(t *testing.T, username string) *models.User {
	t.Helper()
	u, err := f.auth.Register(context.Background(), services.RegisterInput{
		Email:    username + "@example.com",
		Username: username,
		Password: password,
	})
	require.NoError(t, err)
	return u
}

func (f *fixture) project(t *testing.T, admin *models.User) *models.Project {
	t.Helper()
	p, err := f.projects.Create(context.Background(), admin.ID, "Alpha", "d")
	require.NoError(t, err)
	return p
}

func (f *fixture) task(t *testing.T, p *models.Project, caller *models.User, title string) *models.Task {
	t.Helper()
	task, err := f.tasks.Create(context.Background(), services.CreateTaskInput{ProjectID: p.ID, Title: title}, caller.ID)
	require.NoError(t, err)
	return task
}

// requireKind asserts err is an APIError of the given kind and returns it.
func requireKind(t *testing.T, err error, kind models.ErrorKind) *models.APIError {
	t.Helper()
	require.Error(t, err)
	apiErr, ok := models.AsAPIError(err)
	require.Truef(t, ok, "want APIError, got %v", err)
	require.Equal(t, kind, apiErr.Kind, apiErr.Message)
	return apiErr
}

// requireAdminIsMember checks the project invariant straight from storage.
func (f *fixture) requireAdminIsMember(t *testing.T, projectID string) {
	t.Helper()
	p, err := f.store.GetProject(context.Background(), projectID)
	require.NoError(t, err)
	require.NotEmpty(t, p.Members)
	require.Equal(t, p.AdminID, p.Members[0])
}

package services

import (
	"context"
	"errors"
	"projectcamp/models"
	"projectcamp/policy"
	"projectcamp/store"
	"projectcamp/utils"
	"strings"
	"time"

	"github.com/google/uuid"
)

type ProjectService struct {
	store store.Store
	now   func() time.Time
}

func NewProjectService(st store.Store) *ProjectService {
	return &ProjectService{store: st, now: time.Now}
}

func (s *ProjectService) Create(ctx context.Context, callerID, name, description string) (*models.Project, error) {
	name = strings.TrimSpace(name)
	description = strings.TrimSpace(description)
	if name == "" || description == "" {
		return nil, models.InvalidArgument("Project name and description are required")
	}
	if err := utils.ValidateTitle(name); err != nil {
		return nil, models.InvalidArgument("Project name is too long", err.Error())
	}

	now := s.now()
	project := &models.Project{
		ID:          uuid.NewString(),
		Name:        name,
		Description: description,
		AdminID:     callerID,
		Members:     []string{callerID},
		Tasks:       []string{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.CreateProject(ctx, project); err != nil {
		return nil, err
	}
	return project, nil
}

// List returns the caller's projects, newest first, with the admin expanded.
func (s *ProjectService) List(ctx context.Context, callerID string) ([]models.ProjectSummary, error) {
	projects, err := s.store.ListProjectsForUser(ctx, callerID)
	if err != nil {
		return nil, err
	}

	var adminIDs []string
	seen := map[string]bool{}
	for _, p := range projects {
		if !seen[p.AdminID] {
			seen[p.AdminID] = true
			adminIDs = append(adminIDs, p.AdminID)
		}
	}
	admins, err := s.store.GetPublicUsers(ctx, adminIDs)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]models.PublicUser, len(admins))
	for _, a := range admins {
		byID[a.ID] = a
	}

	out := make([]models.ProjectSummary, 0, len(projects))
	for _, p := range projects {
		admin, ok := byID[p.AdminID]
		if !ok {
			admin = models.PublicUser{ID: p.AdminID}
		}
		out = append(out, models.ProjectSummary{
			ID:          p.ID,
			Name:        p.Name,
			Description: p.Description,
			Admin:       admin,
			Members:     p.Members,
			Tasks:       p.Tasks,
			Notes:       p.Notes,
			CreatedAt:   p.CreatedAt,
			UpdatedAt:   p.UpdatedAt,
		})
	}
	return out, nil
}

// Get returns the project with members and tasks populated. Only members may read it.
func (s *ProjectService) Get(ctx context.Context, projectID, callerID string) (*models.ProjectDetail, error) {
	p, err := loadProject(ctx, s.store, projectID)
	if err != nil {
		return nil, err
	}
	if err := policy.RequireMember(p, callerID); err != nil {
		return nil, err
	}

	members, err := s.store.GetPublicUsers(ctx, p.Members)
	if err != nil {
		return nil, err
	}
	tasks, err := s.store.ListTasksByProject(ctx, p.ID)
	if err != nil {
		return nil, translate(err, msgProjectNotFound)
	}

	return &models.ProjectDetail{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Admin:       p.AdminID,
		Members:     members,
		Tasks:       tasks,
		Notes:       p.Notes,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}, nil
}

func (s *ProjectService) AddMember(ctx context.Context, projectID, email, callerID string) (*models.PublicUser, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, models.InvalidArgument("Email is required")
	}

	p, err := loadProject(ctx, s.store, projectID)
	if err != nil {
		return nil, err
	}
	if err := policy.RequireAdmin(p, callerID, "invite members"); err != nil {
		return nil, err
	}

	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, translate(err, msgUserNotFound)
	}
	if p.HasMember(user.ID) {
		return nil, models.AlreadyMember()
	}
	if err := s.store.AddMember(ctx, p.ID, user.ID); err != nil {
		return nil, translate(err, msgProjectNotFound)
	}

	member := user.Public()
	return &member, nil
}

// Update replaces the provided fields. An absent or blank field keeps its
// current value; the other fields are still applied.
func (s *ProjectService) Update(ctx context.Context, projectID string, update models.ProjectUpdate, callerID string) (*models.Project, error) {
	update.Name = nonBlank(update.Name)
	update.Description = nonBlank(update.Description)
	if update.Name != nil {
		if err := utils.ValidateTitle(*update.Name); err != nil {
			return nil, models.InvalidArgument("Project name is too long", err.Error())
		}
	}

	p, err := loadProject(ctx, s.store, projectID)
	if err != nil {
		return nil, err
	}
	if err := policy.RequireAdmin(p, callerID, "update project details"); err != nil {
		return nil, err
	}
	if update.Empty() {
		return p, nil
	}

	updated, err := s.store.UpdateProject(ctx, p.ID, update)
	if err != nil {
		return nil, translate(err, msgProjectNotFound)
	}
	return updated, nil
}

func nonBlank(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func (s *ProjectService) UpdateNotes(ctx context.Context, projectID, notes, callerID string) (string, error) {
	p, err := loadProject(ctx, s.store, projectID)
	if err != nil {
		return "", err
	}
	if err := policy.RequireMember(p, callerID); err != nil {
		return "", err
	}

	saved, err := s.store.UpdateNotes(ctx, p.ID, notes)
	if err != nil {
		return "", translate(err, msgProjectNotFound)
	}
	return saved, nil
}

// Delete removes the project and every task that belongs to it.
func (s *ProjectService) Delete(ctx context.Context, projectID, callerID string) error {
	p, err := loadProject(ctx, s.store, projectID)
	if err != nil {
		return err
	}
	if err := policy.RequireAdmin(p, callerID, "delete the project"); err != nil {
		return err
	}

	err = s.store.DeleteProject(ctx, p.ID)
	if errors.Is(err, store.ErrNotFound) {
		// Deleted concurrently; the outcome is the same.
		return nil
	}
	return err
}

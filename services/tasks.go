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

type CreateTaskInput struct {
	ProjectID   string  `json:"projectId"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	AssigneeID  *string `json:"assignee"`
}

type TaskService struct {
	store store.Store
	now   func() time.Time
}

func NewTaskService(st store.Store) *TaskService {
	return &TaskService{store: st, now: time.Now}
}

// loadTask returns the task together with its project.
func (s *TaskService) loadTask(ctx context.Context, taskID string) (*models.Task, *models.Project, error) {
	if !validID(taskID) {
		return nil, nil, models.NotFound(msgTaskNotFound)
	}
	task, err := s.store.GetTask(ctx, taskID)
	if err != nil {
		return nil, nil, translate(err, msgTaskNotFound)
	}
	project, err := s.store.GetProject(ctx, task.ProjectID)
	if err != nil {
		return nil, nil, translate(err, msgTaskNotFound)
	}
	return task, project, nil
}

func (s *TaskService) Create(ctx context.Context, in CreateTaskInput, callerID string) (*models.Task, error) {
	title := strings.TrimSpace(in.Title)
	projectID := strings.TrimSpace(in.ProjectID)
	if title == "" || projectID == "" {
		return nil, models.InvalidArgument("Title and Project ID are required")
	}
	if err := utils.ValidateTitle(title); err != nil {
		return nil, models.InvalidArgument("Task title is too long", err.Error())
	}

	project, err := loadProject(ctx, s.store, projectID)
	if err != nil {
		return nil, err
	}
	if err := policy.RequireMember(project, callerID); err != nil {
		return nil, err
	}

	var assignee *string
	if in.AssigneeID != nil && strings.TrimSpace(*in.AssigneeID) != "" {
		id := strings.TrimSpace(*in.AssigneeID)
		if !project.HasMember(id) {
			return nil, models.InvalidArgument("Assignee must be a member of the project")
		}
		assignee = &id
	}

	now := s.now()
	task := &models.Task{
		ID:          uuid.NewString(),
		ProjectID:   project.ID,
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		Status:      models.StatusTodo,
		AssigneeID:  assignee,
		Subtasks:    []models.Subtask{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.CreateTask(ctx, task); err != nil {
		return nil, translate(err, msgProjectNotFound)
	}
	return task, nil
}

func (s *TaskService) UpdateStatus(ctx context.Context, taskID, status, callerID string) (*models.Task, error) {
	parsed, ok := models.ParseTaskStatus(status)
	if !ok {
		return nil, models.InvalidArgument("Invalid status value")
	}

	task, project, err := s.loadTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if err := policy.RequireMember(project, callerID); err != nil {
		return nil, err
	}

	updated, err := s.store.UpdateTaskStatus(ctx, task.ID, parsed)
	if err != nil {
		return nil, translate(err, msgTaskNotFound)
	}
	return updated, nil
}

func (s *TaskService) Delete(ctx context.Context, taskID, callerID string) error {
	task, project, err := s.loadTask(ctx, taskID)
	if err != nil {
		return err
	}
	if err := policy.RequireAdmin(project, callerID, "delete tasks"); err != nil {
		return err
	}
	return translate(s.store.DeleteTask(ctx, task.ID), msgTaskNotFound)
}

func (s *TaskService) AddSubtask(ctx context.Context, taskID, title, callerID string) (*models.Task, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, models.InvalidArgument("Subtask title is required")
	}
	if err := utils.ValidateTitle(title); err != nil {
		return nil, models.InvalidArgument("Subtask title is too long", err.Error())
	}

	task, project, err := s.loadTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if err := policy.RequireMember(project, callerID); err != nil {
		return nil, err
	}

	updated, err := s.store.AddSubtask(ctx, task.ID, models.Subtask{
		ID:    uuid.NewString(),
		Title: title,
	})
	if err != nil {
		return nil, translate(err, msgTaskNotFound)
	}
	return updated, nil
}

func (s *TaskService) ToggleSubtask(ctx context.Context, taskID, subtaskID, callerID string) (*models.Task, error) {
	task, project, err := s.loadTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if err := policy.RequireMember(project, callerID); err != nil {
		return nil, err
	}
	if task.Subtask(subtaskID) == nil {
		return nil, models.NotFound(msgSubtaskNotFound)
	}

	updated, err := s.store.ToggleSubtask(ctx, task.ID, subtaskID)
	if errors.Is(err, store.ErrSubtaskNotFound) {
		return nil, models.NotFound(msgSubtaskNotFound)
	}
	if err != nil {
		return nil, translate(err, msgTaskNotFound)
	}
	return updated, nil
}

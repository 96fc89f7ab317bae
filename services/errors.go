// Package services holds the business operations behind the HTTP surface.
// Every failure a caller may see is returned as a *models.APIError; anything
// else is an internal error.
package services

import (
	"context"
	"errors"
	"projectcamp/models"
	"projectcamp/store"

	"github.com/google/uuid"
)

const (
	msgProjectNotFound = "Project not found"
	msgTaskNotFound    = "Task not found"
	msgSubtaskNotFound = "Subtask not found"
	msgUserNotFound    = "User not found"
)

// translate maps store sentinels onto API errors and passes anything else through.
func translate(err error, notFound string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound):
		return models.NotFound(notFound)
	case errors.Is(err, store.ErrConflict):
		return models.Conflict("Resource already exists")
	}
	return err
}

// validID rejects ids that cannot name any record, so they surface as NotFound
// instead of a driver error.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func loadProject(ctx context.Context, st store.Store, projectID string) (*models.Project, error) {
	if !validID(projectID) {
		return nil, models.NotFound(msgProjectNotFound)
	}
	p, err := st.GetProject(ctx, projectID)
	if err != nil {
		return nil, translate(err, msgProjectNotFound)
	}
	return p, nil
}

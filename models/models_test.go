package models_test

import (
	"errors"
	"fmt"
	"net/http"
	"projectcamp/models"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseTaskStatus(t *testing.T) {
	tests := []struct {
		in   string
		want models.TaskStatus
		ok   bool
	}{
		{"TODO", models.StatusTodo, true},
		{"IN_PROGRESS", models.StatusInProgress, true},
		{"DONE", models.StatusDone, true},
		{"done", "", false},
		{"In_Progress", "", false},
		{" TODO", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := models.ParseTaskStatus(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestAPIErrorMatching(t *testing.T) {
	wrapped := fmt.Errorf("adding member: %w", models.AlreadyMember())

	assert.True(t, errors.Is(wrapped, models.ErrConflict))
	assert.False(t, errors.Is(wrapped, models.ErrNotFound))

	apiErr, ok := models.AsAPIError(wrapped)
	assert.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "Conflict: User is already a member of this project", apiErr.Error())

	_, ok = models.AsAPIError(errors.New("boom"))
	assert.False(t, ok)
}

func TestEnvelopes(t *testing.T) {
	ok := models.NewApiResponse(http.StatusCreated, "x", "created")
	assert.True(t, ok.Success)
	assert.Equal(t, 201, ok.StatusCode)

	failed := models.NewApiErrorResponse(models.NotFound("Project not found"))
	assert.False(t, failed.Success)
	assert.Equal(t, http.StatusNotFound, failed.StatusCode)
	assert.NotNil(t, failed.Errors)
	assert.Empty(t, failed.Errors)
}

func TestTemporaryTokenValidity(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	expiry := now.Add(20 * time.Minute)
	u := &models.User{
		EmailVerificationToken:  "digest",
		EmailVerificationExpiry: &expiry,
	}

	assert.True(t, u.VerificationValid("digest", now))
	assert.False(t, u.VerificationValid("other", now))
	assert.False(t, u.VerificationValid("digest", expiry))
	assert.False(t, u.VerificationValid("", now))
	assert.False(t, u.ResetValid("digest", now), "reset token is unset")
}

func TestProjectHasMember(t *testing.T) {
	p := &models.Project{AdminID: "a", Members: []string{"a", "c"}}
	assert.True(t, p.HasMember("c"))
	assert.False(t, p.HasMember("b"))
	assert.True(t, models.ProjectUpdate{}.Empty())
	name := "x"
	assert.False(t, models.ProjectUpdate{Name: &name}.Empty())
}

package services_test

import (
	"context"
	"errors"
	"net/http"
	"projectcamp/models"
	"projectcamp/store"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(s string) *string { return &s }

func TestCreateProject(t *testing.T) {
	f := newFixture(t)
	a := f.register(t, "alice")

	p := f.project(t, a)

	assert.Equal(t, "Alpha", p.Name)
	assert.Equal(t, "d", p.Description)
	assert.Equal(t, a.ID, p.AdminID)
	assert.Equal(t, []string{a.ID}, p.Members)
	assert.Empty(t, p.Tasks)
	assert.Equal(t, "", p.Notes)
	f.requireAdminIsMember(t, p.ID)
}

func TestCreateProjectValidation(t *testing.T) {
	f := newFixture(t)
	a := f.register(t, "alice")

	tests := []struct {
		name        string
		projectName string
		description string
	}{
		{name: "missing name", projectName: "", description: "d"},
		{name: "missing description", projectName: "Alpha", description: ""},
		{name: "blank name", projectName: "   ", description: "d"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.projects.Create(context.Background(), a.ID, tt.projectName, tt.description)
			requireKind(t, err, models.KindInvalidArgument)
		})
	}
}

func TestListProjects(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.register(t, "alice")
	b := f.register(t, "bob")

	first := f.project(t, a)
	second, err := f.projects.Create(ctx, b.ID, "Beta", "b")
	require.NoError(t, err)
	_, err = f.projects.AddMember(ctx, second.ID, a.Email, b.ID)
	require.NoError(t, err)
	_, err = f.projects.Create(ctx, b.ID, "Gamma", "g")
	require.NoError(t, err)

	list, err := f.projects.List(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID, "newest first")
	assert.Equal(t, first.ID, list[1].ID)
	assert.Equal(t, models.PublicUser{ID: b.ID, Username: "bob", Email: "bob@example.com"}, list[0].Admin)

	none, err := f.projects.List(ctx, uuid.NewString())
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestGetProjectRequiresMembership(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.register(t, "alice")
	b := f.register(t, "bob")
	p := f.project(t, a)
	task := f.task(t, p, a, "T1")

	_, err := f.projects.Get(ctx, p.ID, b.ID)
	requireKind(t, err, models.KindForbidden)

	_, err = f.projects.Get(ctx, uuid.NewString(), a.ID)
	requireKind(t, err, models.KindNotFound)

	_, err = f.projects.Get(ctx, "not-an-id", a.ID)
	requireKind(t, err, models.KindNotFound)

	detail, err := f.projects.Get(ctx, p.ID, a.ID)
	require.NoError(t, err)
	assert.Equal(t, []models.PublicUser{a.Public()}, detail.Members)
	require.Len(t, detail.Tasks, 1)
	assert.Equal(t, task.ID, detail.Tasks[0].ID)
}

func TestDeleteProjectAuthority(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.register(t, "alice")
	b := f.register(t, "bob")
	c := f.register(t, "carol")
	p := f.project(t, a)
	_, err := f.projects.AddMember(ctx, p.ID, c.Email, a.ID)
	require.NoError(t, err)

	err = f.projects.Delete(ctx, p.ID, b.ID)
	requireKind(t, err, models.KindForbidden)

	err = f.projects.Delete(ctx, p.ID, c.ID)
	apiErr := requireKind(t, err, models.KindForbidden)
	assert.Equal(t, "Authority Denied: Only Admin can delete the project", apiErr.Message)

	err = f.projects.Delete(ctx, uuid.NewString(), a.ID)
	requireKind(t, err, models.KindNotFound)
}

func TestDeleteProjectCascades(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.register(t, "alice")
	p := f.project(t, a)
	other := f.project(t, a)
	t1 := f.task(t, p, a, "T1")
	t2 := f.task(t, p, a, "T2")
	kept := f.task(t, other, a, "kept")

	require.NoError(t, f.projects.Delete(ctx, p.ID, a.ID))

	for _, id := range []string{t1.ID, t2.ID} {
		_, err := f.store.GetTask(ctx, id)
		assert.True(t, errors.Is(err, store.ErrNotFound), "task %s survived", id)
	}
	_, err := f.store.GetProject(ctx, p.ID)
	assert.True(t, errors.Is(err, store.ErrNotFound))

	_, err = f.store.GetTask(ctx, kept.ID)
	assert.NoError(t, err)
}

func TestAddMember(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.register(t, "alice")
	b := f.register(t, "bob")
	c := f.register(t, "carol")
	p := f.project(t, a)

	member, err := f.projects.AddMember(ctx, p.ID, "Carol@Example.com", a.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PublicUser{ID: c.ID, Username: "carol", Email: "carol@example.com"}, *member)

	detail, err := f.projects.Get(ctx, p.ID, c.ID)
	require.NoError(t, err)
	assert.Equal(t, []models.PublicUser{a.Public(), c.Public()}, detail.Members)

	_, err = f.projects.AddMember(ctx, p.ID, c.Email, a.ID)
	apiErr := requireKind(t, err, models.KindConflict)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "User is already a member of this project", apiErr.Message)

	stored, err := f.store.GetProject(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{a.ID, c.ID}, stored.Members)
	f.requireAdminIsMember(t, p.ID)

	_, err = f.projects.AddMember(ctx, p.ID, a.Email, a.ID)
	requireKind(t, err, models.KindConflict)

	_, err = f.projects.AddMember(ctx, p.ID, "nobody@example.com", a.ID)
	requireKind(t, err, models.KindNotFound)

	_, err = f.projects.AddMember(ctx, p.ID, "", a.ID)
	requireKind(t, err, models.KindInvalidArgument)

	_, err = f.projects.AddMember(ctx, p.ID, b.Email, c.ID)
	requireKind(t, err, models.KindForbidden)
}

func TestAddMemberStoreIsIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.register(t, "alice")
	c := f.register(t, "carol")
	p := f.project(t, a)

	require.NoError(t, f.store.AddMember(ctx, p.ID, c.ID))
	require.NoError(t, f.store.AddMember(ctx, p.ID, c.ID))

	stored, err := f.store.GetProject(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{a.ID, c.ID}, stored.Members)
}

func TestUpdateProject(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.register(t, "alice")
	c := f.register(t, "carol")
	p := f.project(t, a)
	_, err := f.projects.AddMember(ctx, p.ID, c.Email, a.ID)
	require.NoError(t, err)

	updated, err := f.projects.Update(ctx, p.ID, models.ProjectUpdate{Name: ptr("  Beta ")}, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "Beta", updated.Name)
	assert.Equal(t, "d", updated.Description)

	updated, err = f.projects.Update(ctx, p.ID, models.ProjectUpdate{Description: ptr("new")}, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "Beta", updated.Name)
	assert.Equal(t, "new", updated.Description)

	unchanged, err := f.projects.Update(ctx, p.ID, models.ProjectUpdate{}, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "Beta", unchanged.Name)

	updated, err = f.projects.Update(ctx, p.ID, models.ProjectUpdate{Name: ptr(""), Description: ptr("newer")}, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "Beta", updated.Name, "blank name keeps the old value")
	assert.Equal(t, "newer", updated.Description)

	updated, err = f.projects.Update(ctx, p.ID, models.ProjectUpdate{Name: ptr(" "), Description: ptr("")}, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "Beta", updated.Name)
	assert.Equal(t, "newer", updated.Description)

	_, err = f.projects.Update(ctx, p.ID, models.ProjectUpdate{Name: ptr("Hijack")}, c.ID)
	requireKind(t, err, models.KindForbidden)

	f.requireAdminIsMember(t, p.ID)
}

func TestUpdateNotes(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.register(t, "alice")
	b := f.register(t, "bob")
	c := f.register(t, "carol")
	p := f.project(t, a)
	_, err := f.projects.AddMember(ctx, p.ID, c.Email, a.ID)
	require.NoError(t, err)

	notes, err := f.projects.UpdateNotes(ctx, p.ID, "  remember the milk ", c.ID)
	require.NoError(t, err)
	assert.Equal(t, "  remember the milk ", notes)

	notes, err = f.projects.UpdateNotes(ctx, p.ID, "", a.ID)
	require.NoError(t, err)
	assert.Equal(t, "", notes)

	_, err = f.projects.UpdateNotes(ctx, p.ID, "spam", b.ID)
	requireKind(t, err, models.KindForbidden)

	_, err = f.projects.UpdateNotes(ctx, uuid.NewString(), "x", a.ID)
	requireKind(t, err, models.KindNotFound)
}

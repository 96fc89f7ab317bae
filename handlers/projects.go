package handlers

import (
	"net/http"
	"projectcamp/models"
	"projectcamp/services"
)

func CreateProject(w http.ResponseWriter, r *http.Request, projects *services.ProjectService) {
	var body struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	project, err := projects.Create(r.Context(), callerID(r), body.Name, body.Description)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond(w, http.StatusCreated, project, "Project created successfully")
}

func ListProjects(w http.ResponseWriter, r *http.Request, projects *services.ProjectService) {
	list, err := projects.List(r.Context(), callerID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond(w, http.StatusOK, list, "Projects fetched successfully")
}

func GetProject(w http.ResponseWriter, r *http.Request, projects *services.ProjectService) {
	detail, err := projects.Get(r.Context(), r.PathValue("projectId"), callerID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond(w, http.StatusOK, detail, "Project details fetched successfully")
}

func UpdateProject(w http.ResponseWriter, r *http.Request, projects *services.ProjectService) {
	var update models.ProjectUpdate
	if err := decodeJSON(w, r, &update); err != nil {
		writeError(w, r, err)
		return
	}
	project, err := projects.Update(r.Context(), r.PathValue("projectId"), update, callerID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond(w, http.StatusOK, project, "Project updated successfully")
}

func DeleteProject(w http.ResponseWriter, r *http.Request, projects *services.ProjectService) {
	if err := projects.Delete(r.Context(), r.PathValue("projectId"), callerID(r)); err != nil {
		writeError(w, r, err)
		return
	}
	respond(w, http.StatusOK, empty, "Project and its tasks deleted successfully")
}

func AddMember(w http.ResponseWriter, r *http.Request, projects *services.ProjectService) {
	var body struct {
		Email string `json:"email"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	member, err := projects.AddMember(r.Context(), r.PathValue("projectId"), body.Email, callerID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond(w, http.StatusOK, member, "Member added successfully")
}

func UpdateNotes(w http.ResponseWriter, r *http.Request, projects *services.ProjectService) {
	var body struct {
		Notes *string `json:"notes"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	if body.Notes == nil {
		writeError(w, r, models.InvalidArgument("Notes are required"))
		return
	}
	notes, err := projects.UpdateNotes(r.Context(), r.PathValue("projectId"), *body.Notes, callerID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond(w, http.StatusOK, notes, "Notes updated successfully")
}

package handlers

import (
	"net/http"
	"projectcamp/services"
)

func CreateTask(w http.ResponseWriter, r *http.Request, tasks *services.TaskService) {
	var in services.CreateTaskInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	task, err := tasks.Create(r.Context(), in, callerID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond(w, http.StatusCreated, task, "Task added successfully")
}

func UpdateTaskStatus(w http.ResponseWriter, r *http.Request, tasks *services.TaskService) {
	var body struct {
		Status string `json:"status"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	task, err := tasks.UpdateStatus(r.Context(), r.PathValue("taskId"), body.Status, callerID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond(w, http.StatusOK, task, "Task status updated successfully")
}

func DeleteTask(w http.ResponseWriter, r *http.Request, tasks *services.TaskService) {
	if err := tasks.Delete(r.Context(), r.PathValue("taskId"), callerID(r)); err != nil {
		writeError(w, r, err)
		return
	}
	respond(w, http.StatusOK, empty, "Task deleted successfully")
}

func AddSubtask(w http.ResponseWriter, r *http.Request, tasks *services.TaskService) {
	var body struct {
		Title string `json:"title"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	task, err := tasks.AddSubtask(r.Context(), r.PathValue("taskId"), body.Title, callerID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond(w, http.StatusOK, task, "Subtask added successfully")
}

func ToggleSubtask(w http.ResponseWriter, r *http.Request, tasks *services.TaskService) {
	task, err := tasks.ToggleSubtask(r.Context(), r.PathValue("taskId"), r.PathValue("subtaskId"), callerID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond(w, http.StatusOK, task, "Subtask status toggled")
}

// Package policy decides who may read or mutate a project and its tasks.
// Authority over a project belongs to its admin alone; read access and
// day-to-day task work belong to any member.
package policy

import "projectcamp/models"

// CanMutateProject reports whether userID holds authority over the project:
// deleting it, editing its fields, inviting members, and deleting its tasks.
func CanMutateProject(project *models.Project, userID string) bool {
	return project != nil && userID != "" && project.AdminID == userID
}

// IsMember reports whether userID may read the project.
func IsMember(project *models.Project, userID string) bool {
	return project != nil && userID != "" && project.HasMember(userID)
}

// RequireAdmin returns a Forbidden error naming action unless userID is the admin.
func RequireAdmin(project *models.Project, userID, action string) error {
	if !CanMutateProject(project, userID) {
		return models.Forbidden("Authority Denied: Only Admin can " + action)
	}
	return nil
}

// RequireMember returns a Forbidden error unless userID is a member.
func RequireMember(project *models.Project, userID string) error {
	if !IsMember(project, userID) {
		return models.Forbidden("You are not a member of this project")
	}
	return nil
}

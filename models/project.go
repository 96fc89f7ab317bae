package models

import (
	"slices"
	"time"
)

// Project holds member and task references as ordered id lists. The admin is
// always the first member.
type Project struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description"`
	AdminID     string    `db:"admin_id" json:"admin"`
	Members     []string  `json:"members"`
	Tasks       []string  `json:"tasks"`
	Notes       string    `db:"notes" json:"notes"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `db:"updated_at" json:"updatedAt"`
}

func (p *Project) HasMember(userID string) bool {
	return slices.Contains(p.Members, userID)
}

// ProjectUpdate carries optional field replacements. A nil field is left unchanged.
type ProjectUpdate struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

func (u ProjectUpdate) Empty() bool {
	return u.Name == nil && u.Description == nil
}

// ProjectSummary is a list entry with the admin expanded.
type ProjectSummary struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Admin       PublicUser `json:"admin"`
	Members     []string   `json:"members"`
	Tasks       []string   `json:"tasks"`
	Notes       string     `json:"notes"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// ProjectDetail is a project with members and tasks populated.
type ProjectDetail struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Admin       string       `json:"admin"`
	Members     []PublicUser `json:"members"`
	Tasks       []Task       `json:"tasks"`
	Notes       string       `json:"notes"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

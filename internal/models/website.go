package models

import "time"

// Website statuses. A website stays "Deploying" until its first push-triggered
// build finishes; this service never observes that transition itself.
const (
	WebsiteStatusDeploying = "Deploying"
	WebsiteStatusActive    = "Active"
	WebsiteStatusFailed    = "Failed"
)

// Website is the record persisted after a successful provisioning run.
type Website struct {
	ID        string     `json:"id"`
	ProjectID string     `json:"project_id"`
	UserID    string     `json:"user_id"`
	Name      string     `json:"name"`
	RepoName  string     `json:"repo_name"`
	URL       string     `json:"url"`
	Status    string     `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}

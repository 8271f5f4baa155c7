package models

import "time"

const (
	SessionStatusRunning = "Running"
	SessionStatusStopped = "Stopped"
)

// EditingSession records one ephemeral build-and-deploy cycle against an
// existing repository. Sessions are never reused across requests.
type EditingSession struct {
	ID          string    `json:"id"`
	RepoName    string    `json:"repo_name"`
	SessionID   string    `json:"session_id"`
	ServiceName string    `json:"service_name"`
	URL         string    `json:"url"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

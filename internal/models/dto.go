package models

// CreateWebsiteRequest is the provisioning entry point payload.
type CreateWebsiteRequest struct {
	Name      string `json:"name" binding:"required"`
	ProjectID string `json:"project_id" binding:"required"`
}

// ProvisioningResult is the sole value the provisioning orchestrator returns.
// It is never partially populated: success carries both Repo and URL, failure
// carries only Error.
type ProvisioningResult struct {
	Success bool   `json:"success"`
	Repo    string `json:"repo,omitempty"`
	URL     string `json:"url,omitempty"`
	Error   string `json:"error,omitempty"`
}

// StartSessionRequest is the live-editing entry point payload. RepoName is
// the full "owner/repo" name of an already-provisioned repository.
type StartSessionRequest struct {
	RepoName string `json:"repo_name" binding:"required"`
}

// SessionResult mirrors ProvisioningResult for the live-editing flow.
type SessionResult struct {
	Success   bool   `json:"success"`
	URL       string `json:"url,omitempty"`
	SessionID string `json:"session_id,omitempty"`
	Error     string `json:"error,omitempty"`
}

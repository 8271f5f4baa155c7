package models

import "time"

// ActionLog is an audit entry for a provisioning or session action.
type ActionLog struct {
	ID        string                 `json:"id"`
	RecordID  string                 `json:"record_id"`
	Action    string                 `json:"action"`
	Status    string                 `json:"status"`
	Message   string                 `json:"message"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}

package http

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/craftbase/site-provisioner/internal/models"
	"github.com/craftbase/site-provisioner/internal/repository"
	"github.com/craftbase/site-provisioner/internal/service"
)

// Provisioner runs one website-provisioning flow.
type Provisioner interface {
	Provision(ctx context.Context, displayName string) *models.ProvisioningResult
}

// SessionStarter runs one live-editing session flow.
type SessionStarter interface {
	Start(ctx context.Context, fullRepoName string) *models.SessionResult
}

// WebsiteStore persists and reads website records.
type WebsiteStore interface {
	Create(ctx context.Context, w *models.Website) error
	GetByID(ctx context.Context, id string) (*models.Website, error)
	ListByProject(ctx context.Context, projectID string) ([]*models.Website, error)
}

// SessionStore persists and reads editing-session records.
type SessionStore interface {
	Create(ctx context.Context, s *models.EditingSession) error
	ListByRepo(ctx context.Context, repoName string) ([]*models.EditingSession, error)
}

// ActionLogger writes audit entries. Logging failures never fail a request.
type ActionLogger interface {
	LogAction(ctx context.Context, recordID, action, status, message string) error
}

type Handler struct {
	provisioner Provisioner
	sessions    SessionStarter

	websites WebsiteStore
	records  SessionStore
	logs     ActionLogger
}

func NewHandler(provisioner Provisioner, sessions SessionStarter, websites WebsiteStore, records SessionStore, logs ActionLogger) *Handler {
	return &Handler{
		provisioner: provisioner,
		sessions:    sessions,
		websites:    websites,
		records:     records,
		logs:        logs,
	}
}

// ==================== Website Handlers ====================

// CreateWebsite provisions a new website. The orchestrator itself never
// touches storage; the record and audit entry are written here, only after
// the run succeeds, mirroring what the run actually achieved.
func (h *Handler) CreateWebsite(c *gin.Context) {
	var req models.CreateWebsiteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result := h.provisioner.Provision(c.Request.Context(), req.Name)
	if !result.Success {
		c.JSON(http.StatusOK, result)
		return
	}

	website := &models.Website{
		ID:        uuid.New().String(),
		ProjectID: req.ProjectID,
		UserID:    c.GetString("userID"),
		Name:      req.Name,
		RepoName:  result.Repo,
		URL:       result.URL,
		Status:    models.WebsiteStatusDeploying,
	}
	if err := h.websites.Create(c.Request.Context(), website); err != nil {
		// The external resources exist either way; surface the record
		// failure rather than pretend the run failed.
		log.Printf("[Handler] Website %s provisioned but record insert failed: %v", result.Repo, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "website provisioned but could not be recorded"})
		return
	}

	if err := h.logs.LogAction(c.Request.Context(), website.ID, "provision", "success", result.URL); err != nil {
		log.Printf("[Handler] Failed to write action log for %s: %v", website.ID, err)
	}

	c.JSON(http.StatusOK, result)
}

// GetWebsite returns one website record by id.
func (h *Handler) GetWebsite(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "website id required"})
		return
	}

	website, err := h.websites.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "website not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, website)
}

// ListProjectWebsites returns every website belonging to a project.
func (h *Handler) ListProjectWebsites(c *gin.Context) {
	projectID := c.Param("project_id")
	if projectID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "project id required"})
		return
	}

	websites, err := h.websites.ListByProject(c.Request.Context(), projectID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"websites": websites})
}

// ==================== Editing Session Handlers ====================

// StartSession begins a live-editing session against an existing repository.
func (h *Handler) StartSession(c *gin.Context) {
	var req models.StartSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result := h.sessions.Start(c.Request.Context(), req.RepoName)
	if !result.Success {
		c.JSON(http.StatusOK, result)
		return
	}

	session := &models.EditingSession{
		ID:          uuid.New().String(),
		RepoName:    req.RepoName,
		SessionID:   result.SessionID,
		ServiceName: service.ServiceName(bareRepoName(req.RepoName), result.SessionID),
		URL:         result.URL,
		Status:      models.SessionStatusRunning,
	}
	if err := h.records.Create(c.Request.Context(), session); err != nil {
		log.Printf("[Handler] Session %s started but record insert failed: %v", result.SessionID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "session started but could not be recorded"})
		return
	}

	if err := h.logs.LogAction(c.Request.Context(), session.ID, "start_session", "success", result.URL); err != nil {
		log.Printf("[Handler] Failed to write action log for %s: %v", session.ID, err)
	}

	c.JSON(http.StatusOK, result)
}

// bareRepoName strips the owner from an "owner/repo" name. The session flow
// has already validated the shape by the time this runs.
func bareRepoName(fullRepoName string) string {
	if _, repo, ok := strings.Cut(fullRepoName, "/"); ok {
		return repo
	}
	return fullRepoName
}

// ListRepoSessions returns the editing sessions recorded for a repository.
func (h *Handler) ListRepoSessions(c *gin.Context) {
	repoName := c.Query("repo_name")
	if repoName == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "repo_name required"})
		return
	}

	sessions, err := h.records.ListByRepo(c.Request.Context(), repoName)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"sessions": sessions})
}

package httpapi

import (
	"errors"
	"net/http"
	"time"

	"outreach-platform/internal/agent"
	"outreach-platform/internal/auth"
	"outreach-platform/internal/campaign"
	"outreach-platform/internal/rbac"
	"outreach-platform/internal/reporting"

	"github.com/gin-gonic/gin"
)

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: parse/validate input, call internal services, return JSON.

type Handlers struct {
	Auth      *auth.Manager
	Campaigns *campaign.Service
	Agents    *agent.Service
	Reports   *reporting.Service
}

// identity pulls the authenticated workspace and user from the request
// context, aborting with 401 when either is missing.
func identity(c *gin.Context) (workspaceID, userID string, ok bool) {
	workspaceID, err := auth.WorkspaceID(c.Request.Context())
	if err != nil || workspaceID == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "workspace_id required"})
		return "", "", false
	}
	userID, _ = auth.UserID(c.Request.Context())
	return workspaceID, userID, true
}

// campaignError maps campaign sentinel errors to HTTP statuses.
func campaignError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, campaign.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "campaign not found"})
	case errors.Is(err, campaign.ErrCampaignLocked), errors.Is(err, campaign.ErrNotActive):
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, campaign.ErrAgentMissing),
		errors.Is(err, campaign.ErrEmptyRoster),
		errors.Is(err, campaign.ErrInvalidArgument):
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	default:
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// --- Auth ---

type loginRequest struct {
	UserID      string `json:"user_id"`
	WorkspaceID string `json:"workspace_id"`
	Role        string `json:"role"`
}

// Login issues a JWT token pair.
//
// NOTE: This is a skeleton-only endpoint. Real systems must validate credentials.
func (h Handlers) Login(c *gin.Context) {
	if h.Auth == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "auth not configured"})
		return
	}
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if req.UserID == "" || req.WorkspaceID == "" || req.Role == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "user_id, workspace_id, role required"})
		return
	}
	pair, err := h.Auth.IssuePair(time.Now(), req.UserID, req.WorkspaceID, req.Role)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "token issuance failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"access_token": pair.AccessToken, "refresh_token": pair.RefreshToken})
}

// --- Campaigns ---

func (h Handlers) CreateCampaign(c *gin.Context) {
	workspaceID, userID, ok := identity(c)
	if !ok {
		return
	}
	var req campaign.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	created, err := h.Campaigns.Create(c.Request.Context(), workspaceID, userID, req)
	if err != nil {
		campaignError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h Handlers) GetCampaign(c *gin.Context) {
	workspaceID, _, ok := identity(c)
	if !ok {
		return
	}
	got, err := h.Campaigns.Get(c.Request.Context(), workspaceID, c.Param("campaign_id"))
	if err != nil {
		campaignError(c, err)
		return
	}
	c.JSON(http.StatusOK, got)
}

type importRosterRequest struct {
	Contacts []campaign.Contact `json:"contacts"`
}

func (h Handlers) ImportRoster(c *gin.Context) {
	workspaceID, _, ok := identity(c)
	if !ok {
		return
	}
	var req importRosterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	updated, err := h.Campaigns.ImportRoster(c.Request.Context(), workspaceID, c.Param("campaign_id"), req.Contacts)
	if err != nil {
		campaignError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

type assignAgentRequest struct {
	AgentID string `json:"agent_id"`
}

func (h Handlers) AssignAgent(c *gin.Context) {
	workspaceID, _, ok := identity(c)
	if !ok {
		return
	}
	var req assignAgentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	updated, err := h.Campaigns.AssignAgent(c.Request.Context(), workspaceID, c.Param("campaign_id"), req.AgentID)
	if err != nil {
		campaignError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h Handlers) StartCampaign(c *gin.Context) {
	workspaceID, userID, ok := identity(c)
	if !ok {
		return
	}
	res, err := h.Campaigns.Start(c.Request.Context(), workspaceID, c.Param("campaign_id"), userID)
	if err != nil {
		campaignError(c, err)
		return
	}
	// Starting activates the campaign; the first dial happens on the next
	// advance, which we kick off immediately in-request.
	adv, err := h.Campaigns.Advance(c.Request.Context(), workspaceID, c.Param("campaign_id"))
	if err != nil {
		campaignError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"campaign": res.Campaign, "advance": adv})
}

func (h Handlers) ResumeCampaign(c *gin.Context) {
	h.StartCampaign(c)
}

func (h Handlers) PauseCampaign(c *gin.Context) {
	workspaceID, userID, ok := identity(c)
	if !ok {
		return
	}
	paused, err := h.Campaigns.Pause(c.Request.Context(), workspaceID, c.Param("campaign_id"), userID)
	if err != nil {
		campaignError(c, err)
		return
	}
	c.JSON(http.StatusOK, paused)
}

// AdvanceCampaign forces one orchestration step. Normally the scheduler does
// this; the endpoint exists for operators and for recovery drills.
func (h Handlers) AdvanceCampaign(c *gin.Context) {
	workspaceID, _, ok := identity(c)
	if !ok {
		return
	}
	res, err := h.Campaigns.Advance(c.Request.Context(), workspaceID, c.Param("campaign_id"))
	if err != nil {
		campaignError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h Handlers) GetProgress(c *gin.Context) {
	workspaceID, _, ok := identity(c)
	if !ok {
		return
	}
	p, err := h.Campaigns.GetProgress(c.Request.Context(), workspaceID, c.Param("campaign_id"))
	if err != nil {
		campaignError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// --- Agents ---

type createAgentRequest struct {
	Name         string `json:"name"`
	CallerNumber string `json:"caller_number"`
	Voice        string `json:"voice"`
	ScriptPrompt string `json:"script_prompt"`
}

func (h Handlers) CreateAgent(c *gin.Context) {
	workspaceID, _, ok := identity(c)
	if !ok {
		return
	}
	var req createAgentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	created, err := h.Agents.Create(c.Request.Context(), workspaceID, req.Name, req.CallerNumber, req.Voice, req.ScriptPrompt)
	if err != nil {
		if errors.Is(err, agent.ErrInvalidArgument) {
			c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h Handlers) ListAgents(c *gin.Context) {
	workspaceID, _, ok := identity(c)
	if !ok {
		return
	}
	agents, err := h.Agents.List(c.Request.Context(), workspaceID)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"agents": agents})
}

// --- Reports ---

func (h Handlers) AttemptsSummary(c *gin.Context) {
	workspaceID, _, ok := identity(c)
	if !ok {
		return
	}
	from, err1 := time.Parse(time.RFC3339, c.Query("from"))
	to, err2 := time.Parse(time.RFC3339, c.Query("to"))
	if err1 != nil || err2 != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "from and to must be RFC3339 timestamps"})
		return
	}
	sum, err := h.Reports.AttemptsSummary(c.Request.Context(), reporting.AttemptsSummaryRequest{
		WorkspaceID: workspaceID,
		Range:       reporting.TimeRange{From: from, To: to},
		CampaignID:  c.Query("campaign_id"),
	})
	if err != nil {
		if errors.Is(err, reporting.ErrInvalidRequest) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, sum)
}

// Convenience middleware bundles.

func RequireWorkspaceAndAnyRole(roles ...string) []gin.HandlerFunc {
	return []gin.HandlerFunc{rbac.RequireWorkspace(), rbac.RequireAnyRole(roles...)}
}

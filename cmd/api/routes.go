package main

import (
	"outreach-platform/internal/campaign"
	"outreach-platform/internal/httpapi"
	"outreach-platform/internal/rbac"
	"outreach-platform/internal/telephony"

	"github.com/gin-gonic/gin"
)

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers should delegate to internal modules.
func registerRoutes(r *gin.Engine, authMW gin.HandlerFunc, h httpapi.Handlers, completions *campaign.Service) {
	// public
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Provider webhooks (public). Correlation ids travel in the callback URL
	// query; completion handling is idempotent against redelivery.
	// NOTE: protect with Twilio signature validation in production.
	{
		wh := telephony.StatusWebhookHandler{Completions: completions}
		r.POST("/webhooks/twilio/status", wh.HandleStatusCallback)
	}

	// AUTH routes (token issuance).
	r.POST("/auth/login", h.Login)

	// protected API group
	v1 := r.Group("/v1")
	v1.Use(authMW)
	v1.Use(rbac.RequireWorkspace())
	{
		// AGENT routes: managers own agent configuration.
		agents := v1.Group("/agents")
		agents.Use(rbac.RequireAnyRole(rbac.RoleOwner, rbac.RoleManager, rbac.RoleSuperAdmin))
		{
			agents.POST("", h.CreateAgent)
			agents.GET("", h.ListAgents)
		}

		// CAMPAIGN routes.
		campaigns := v1.Group("/campaigns")
		campaigns.Use(rbac.RequireAnyRole(rbac.RoleOwner, rbac.RoleManager, rbac.RoleRep, rbac.RoleSuperAdmin))
		{
			campaigns.POST("", h.CreateCampaign)
			campaigns.GET("/:campaign_id", h.GetCampaign)
			campaigns.GET("/:campaign_id/progress", h.GetProgress)
			campaigns.PUT("/:campaign_id/roster", h.ImportRoster)
			campaigns.PUT("/:campaign_id/agent", h.AssignAgent)
			campaigns.POST("/:campaign_id/start", h.StartCampaign)
			campaigns.POST("/:campaign_id/pause", h.PauseCampaign)
			campaigns.POST("/:campaign_id/resume", h.ResumeCampaign)
		}

		// Operator-only forced advance, for recovery drills.
		ops := v1.Group("/campaigns")
		ops.Use(rbac.RequireAnyRole(rbac.RoleOwner, rbac.RoleSuperAdmin))
		{
			ops.POST("/:campaign_id/advance", h.AdvanceCampaign)
		}

		// REPORT routes: analysts and above.
		reports := v1.Group("/reports")
		reports.Use(rbac.RequireAnyRole(rbac.RoleOwner, rbac.RoleManager, rbac.RoleAnalyst, rbac.RoleSuperAdmin))
		{
			reports.GET("/attempts-summary", h.AttemptsSummary)
		}
	}
}

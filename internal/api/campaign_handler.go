package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"careerPilot/internal/api/middleware"
	"careerPilot/internal/database"
	"careerPilot/internal/status"
	"careerPilot/internal/store"
	"careerPilot/internal/tasks"
)

// CampaignHandler 创建邮件活动并触发后台发送。
type CampaignHandler struct {
	store    *store.Store
	enqueuer tasks.Enqueuer
}

// NewCampaignHandler 构造 CampaignHandler。
func NewCampaignHandler(s *store.Store, enqueuer tasks.Enqueuer) *CampaignHandler {
	return &CampaignHandler{store: s, enqueuer: enqueuer}
}

type campaignRequest struct {
	UserID          string   `json:"user_id" binding:"required"`
	CampaignName    string   `json:"campaign_name" binding:"required"`
	EmailSubject    string   `json:"email_subject" binding:"required"`
	EmailTemplate   string   `json:"email_template" binding:"required"`
	TargetCompanies []string `json:"target_companies" binding:"required"`
}

// CreateCampaign 以 draft 状态保存活动。
func (h *CampaignHandler) CreateCampaign(c *gin.Context) {
	var req campaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	campaign := &database.EmailCampaign{
		UserID:          req.UserID,
		CampaignName:    req.CampaignName,
		EmailSubject:    req.EmailSubject,
		EmailTemplate:   req.EmailTemplate,
		TargetCompanies: req.TargetCompanies,
		Status:          status.CampaignDraft,
	}
	if err := h.store.CreateCampaign(c.Request.Context(), campaign); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, campaign)
}

// GetCampaign 返回活动当前状态与计数。
func (h *CampaignHandler) GetCampaign(c *gin.Context) {
	campaign, err := h.store.GetCampaign(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, notFoundAs(err, "Campaign"))
		return
	}
	c.JSON(http.StatusOK, campaign)
}

// SendCampaign 提交后台发送任务后立即返回，只有 draft 状态的活动可以发送。
func (h *CampaignHandler) SendCampaign(c *gin.Context) {
	ctx := c.Request.Context()
	campaign, err := h.store.GetCampaign(ctx, c.Param("id"))
	if err != nil {
		respondError(c, notFoundAs(err, "Campaign"))
		return
	}
	if campaign.Status != status.CampaignDraft {
		BadRequest(c, "campaign already "+string(campaign.Status))
		return
	}

	err = h.enqueuer.EnqueueCampaignRun(ctx, campaign.ID, middleware.GetCorrelationID(c))
	if errors.Is(err, tasks.ErrCampaignQueued) {
		BadRequest(c, "campaign already queued")
		return
	}
	if err != nil {
		middleware.LoggerFromContext(c).Error("enqueue campaign failed", slog.String("campaign_id", campaign.ID), slog.Any("error", err))
		Internal(c, "failed to start campaign")
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "campaign_started", "campaign_id": campaign.ID})
}

package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"careerPilot/internal/api/middleware"
	"careerPilot/internal/apply"
	"careerPilot/internal/jobboard"
	"careerPilot/internal/store"
)

const defaultRecentLimit = 50

// JobHandler 处理职位搜索与批量投递。
type JobHandler struct {
	store   *store.Store
	jobs    JobSearcher
	applier Applier
}

// NewJobHandler 构造 JobHandler。
func NewJobHandler(s *store.Store, jobs JobSearcher, applier Applier) *JobHandler {
	return &JobHandler{store: s, jobs: jobs, applier: applier}
}

type searchRequest struct {
	Keywords  string   `json:"keywords" binding:"required"`
	Location  string   `json:"location"`
	SalaryMin *float64 `json:"salary_min"`
	SalaryMax *float64 `json:"salary_max"`
	Limit     int      `json:"limit"`
}

type applyRequest struct {
	UserID     string   `json:"user_id" binding:"required"`
	ResumeID   string   `json:"resume_id" binding:"required"`
	JobIDs     []string `json:"job_ids" binding:"required"`
	SendEmails *bool    `json:"send_emails"`
}

// Search 查询外部职位板，新职位入库。
func (h *JobHandler) Search(c *gin.Context) {
	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	if req.Limit < 0 {
		BadRequest(c, "limit must not be negative")
		return
	}

	result, err := h.jobs.Search(c.Request.Context(), jobboard.Query{
		Keywords:  req.Keywords,
		Location:  req.Location,
		SalaryMin: req.SalaryMin,
		SalaryMax: req.SalaryMax,
		Limit:     req.Limit,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Recent 返回最近入库的职位。
func (h *JobHandler) Recent(c *gin.Context) {
	limit := defaultRecentLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			BadRequest(c, "limit must be a positive integer")
			return
		}
		limit = n
	}

	jobs, err := h.store.RecentJobListings(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"jobs": jobs, "count": len(jobs)})
}

// Apply 为每个职位生成求职信、创建投递记录，并按需安排邮件发送。
func (h *JobHandler) Apply(c *gin.Context) {
	var req applyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	sendEmails := true
	if req.SendEmails != nil {
		sendEmails = *req.SendEmails
	}

	result, err := h.applier.Apply(c.Request.Context(), apply.Request{
		UserID:        req.UserID,
		ResumeID:      req.ResumeID,
		JobIDs:        req.JobIDs,
		SendEmails:    sendEmails,
		CorrelationID: middleware.GetCorrelationID(c),
	})
	if err != nil {
		// 已写入的部分记录可通过 /applications/{user_id} 查询
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// ListApplications 返回用户的投递记录。
func (h *JobHandler) ListApplications(c *gin.Context) {
	apps, err := h.store.ListApplicationsByUser(c.Request.Context(), c.Param("user_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, apps)
}

package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes 注册业务路由，group 为 /api 分组。
func RegisterRoutes(group *gin.RouterGroup, deps Deps) {
	resumeHandler := NewResumeHandler(deps.Store, deps.Advisor, deps.Archiver, deps.Scanner)
	jobHandler := NewJobHandler(deps.Store, deps.Jobs, deps.Applier)
	contactHandler := NewContactHandler(deps.Store)
	campaignHandler := NewCampaignHandler(deps.Store, deps.Enqueuer)

	group.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "Resume Builder API is running"})
	})

	if deps.Redis != nil {
		wsHandler := NewWsHandler(deps.Redis, deps.Logger, deps.AllowedOrigins)
		group.GET("/ws/:user_id", wsHandler.HandleConnection)
	}

	resumeGroup := group.Group("/resume")
	{
		resumeGroup.POST("", resumeHandler.CreateResume)
		resumeGroup.POST("/parse-upload", resumeHandler.ParseUpload)
		resumeGroup.GET("/:id", resumeHandler.GetResume)
		resumeGroup.PUT("/:id", resumeHandler.UpdateResume)
		resumeGroup.POST("/:id/analyze", resumeHandler.AnalyzeResume)
		resumeGroup.GET("/:id/analysis", resumeHandler.GetAnalysis)
		resumeGroup.POST("/:id/cover-letter", resumeHandler.GenerateCoverLetter)
	}
	group.GET("/user/:user_id/resumes", resumeHandler.ListUserResumes)

	jobGroup := group.Group("/jobs")
	{
		jobGroup.POST("/search", jobHandler.Search)
		jobGroup.GET("/recent", jobHandler.Recent)
		jobGroup.POST("/apply", jobHandler.Apply)
	}
	group.GET("/applications/:user_id", jobHandler.ListApplications)

	group.POST("/companies/contacts", contactHandler.CreateContact)
	group.GET("/companies/contacts", contactHandler.ListContacts)

	campaignGroup := group.Group("/email/campaign")
	{
		campaignGroup.POST("", campaignHandler.CreateCampaign)
		campaignGroup.POST("/:id/send", campaignHandler.SendCampaign)
	}
	group.GET("/campaigns/:id", campaignHandler.GetCampaign)
}

package api

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"

	"careerPilot/internal/ai"
	"careerPilot/internal/api/middleware"
	"careerPilot/internal/database"
	"careerPilot/internal/resume"
	"careerPilot/internal/storage"
	"careerPilot/internal/store"
)

// maxUploadBytes 限制上传简历的大小。
const maxUploadBytes = 10 << 20

// ResumeHandler 负责处理与简历相关的 API 请求。
type ResumeHandler struct {
	store    *store.Store
	advisor  Advisor
	archiver storage.Archiver
	scanner  storage.Scanner
}

// NewResumeHandler 构造 ResumeHandler。
func NewResumeHandler(s *store.Store, advisor Advisor, archiver storage.Archiver, scanner storage.Scanner) *ResumeHandler {
	if scanner == nil {
		scanner = storage.NopScanner{}
	}
	return &ResumeHandler{store: s, advisor: advisor, archiver: archiver, scanner: scanner}
}

type resumeRequest struct {
	UserID string `json:"user_id" binding:"required"`
	resume.Patch
}

type coverLetterRequest struct {
	CompanyName    string   `json:"company_name" binding:"required"`
	PositionTitle  string   `json:"position_title" binding:"required"`
	JobDescription string   `json:"job_description" binding:"required"`
	Requirements   []string `json:"requirements"`
}

// CreateResume 保存一份新简历。
func (h *ResumeHandler) CreateResume(c *gin.Context) {
	var req resumeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	r := resume.New(req.UserID, req.Patch)
	if err := h.store.CreateResume(c.Request.Context(), r); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

// GetResume 按 ID 返回简历。
func (h *ResumeHandler) GetResume(c *gin.Context) {
	r, err := h.store.GetResume(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, notFoundAs(err, "Resume"))
		return
	}
	c.JSON(http.StatusOK, r)
}

// UpdateResume 按段落替换简历，空段落保留原值。
func (h *ResumeHandler) UpdateResume(c *gin.Context) {
	var req resumeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	ctx := c.Request.Context()
	r, err := h.store.GetResume(ctx, c.Param("id"))
	if err != nil {
		respondError(c, notFoundAs(err, "Resume"))
		return
	}

	resume.Merge(r, req.Patch)
	if err := h.store.SaveResume(ctx, r); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

// AnalyzeResume 调用 AI 评估简历并追加一条分析记录。
func (h *ResumeHandler) AnalyzeResume(c *gin.Context) {
	ctx := c.Request.Context()
	r, err := h.store.GetResume(ctx, c.Param("id"))
	if err != nil {
		respondError(c, notFoundAs(err, "Resume"))
		return
	}

	result, err := h.advisor.Analyze(ctx, r)
	if err != nil {
		respondError(c, err)
		return
	}

	analysis := &database.ResumeAnalysis{
		ResumeID:            r.ID,
		ATSScore:            result.ATSScore,
		Strengths:           nonNil(result.Strengths),
		Weaknesses:          nonNil(result.Weaknesses),
		MissingInformation:  nonNil(result.MissingInformation),
		Suggestions:         nonNil(result.Suggestions),
		KeywordOptimization: datatypes.JSONMap(result.KeywordOptimization),
		SectionScores:       datatypes.NewJSONType(result.SectionScores),
	}
	if analysis.KeywordOptimization == nil {
		analysis.KeywordOptimization = datatypes.JSONMap{}
	}
	if err := h.store.CreateAnalysis(ctx, analysis); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, analysis)
}

// GetAnalysis 返回最近一次分析。
func (h *ResumeHandler) GetAnalysis(c *gin.Context) {
	analysis, err := h.store.LatestAnalysis(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, notFoundAs(err, "Analysis"))
		return
	}
	c.JSON(http.StatusOK, analysis)
}

// GenerateCoverLetter 为指定职位生成并保存求职信。
func (h *ResumeHandler) GenerateCoverLetter(c *gin.Context) {
	var req coverLetterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	ctx := c.Request.Context()
	r, err := h.store.GetResume(ctx, c.Param("id"))
	if err != nil {
		respondError(c, notFoundAs(err, "Resume"))
		return
	}

	content, err := h.advisor.GenerateCoverLetter(ctx, r, ai.JobPosting{
		CompanyName:    req.CompanyName,
		PositionTitle:  req.PositionTitle,
		JobDescription: req.JobDescription,
		Requirements:   req.Requirements,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	cl := &database.CoverLetter{
		ResumeID:      r.ID,
		JobPosting:    req.JobDescription,
		CompanyName:   req.CompanyName,
		PositionTitle: req.PositionTitle,
		Content:       content,
	}
	if err := h.store.CreateCoverLetter(ctx, cl); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cl)
}

// ListUserResumes 返回用户的简历，最多 100 份。
func (h *ResumeHandler) ListUserResumes(c *gin.Context) {
	resumes, err := h.store.ListResumesByUser(c.Request.Context(), c.Param("user_id"), store.MaxListResults)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resumes)
}

// ParseUpload 解析上传的简历文件并创建简历。
// 扩展名在读取文件内容之前校验；原件归档到对象存储，解析失败时删除。
func (h *ResumeHandler) ParseUpload(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		BadRequest(c, "missing file")
		return
	}
	if err := ai.CheckUploadName(file.Filename); err != nil {
		respondError(c, err)
		return
	}
	userID := strings.TrimSpace(c.PostForm("user_id"))
	if userID == "" {
		BadRequest(c, "user_id is required")
		return
	}
	if file.Size > maxUploadBytes {
		BadRequest(c, "file too large")
		return
	}

	src, err := file.Open()
	if err != nil {
		Internal(c, "failed to open file")
		return
	}
	data, err := io.ReadAll(io.LimitReader(src, maxUploadBytes+1))
	src.Close()
	if err != nil {
		Internal(c, "failed to read file")
		return
	}

	log := middleware.LoggerFromContext(c)
	if err := h.scanner.Scan(data); err != nil {
		if errors.Is(err, storage.ErrInfected) {
			BadRequest(c, "malicious file detected")
			return
		}
		log.Error("scan file", slog.Any("error", err))
		Internal(c, "failed to scan file")
		return
	}

	ctx := c.Request.Context()
	contentType := file.Header.Get("Content-Type")
	objectKey := ""
	if h.archiver != nil {
		objectKey = storage.UploadKey(userID, file.Filename)
		archiveType := contentType
		if archiveType == "" {
			archiveType = "application/octet-stream"
		}
		if err := h.archiver.UploadFile(ctx, objectKey, bytes.NewReader(data), int64(len(data)), archiveType); err != nil {
			log.Error("archive upload", slog.Any("error", err))
			Internal(c, "failed to store file")
			return
		}
	}

	patch, err := h.advisor.ParseDocument(ctx, ai.Upload{
		Filename:    file.Filename,
		ContentType: contentType,
		Data:        data,
	})
	if err != nil {
		h.discard(c, objectKey)
		respondError(c, err)
		return
	}

	r := resume.New(userID, patch)
	r.SourceFileKey = objectKey
	if err := h.store.CreateResume(ctx, r); err != nil {
		h.discard(c, objectKey)
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

func (h *ResumeHandler) discard(c *gin.Context, objectKey string) {
	if h.archiver == nil || objectKey == "" {
		return
	}
	if err := h.archiver.DeleteObject(c.Request.Context(), objectKey); err != nil {
		middleware.LoggerFromContext(c).Warn("delete archived upload", slog.String("object_key", objectKey), slog.Any("error", err))
	}
}

func nonNil(list []string) datatypes.JSONSlice[string] {
	if list == nil {
		return datatypes.JSONSlice[string]{}
	}
	return list
}

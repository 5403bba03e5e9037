package database

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"careerPilot/internal/status"
)

// Base 提供全局唯一、创建后不可变的字符串主键。
type Base struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

// BeforeCreate 在插入前分配 UUID。
func (b *Base) BeforeCreate(_ *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return nil
}

// Resume 表示用户的结构化简历。
type Resume struct {
	Base
	UserID             string                              `gorm:"index;size:128" json:"user_id"`
	PersonalInfo       datatypes.JSONMap                   `json:"personal_info"`
	Summary            string                              `gorm:"type:text" json:"summary"`
	Experience         datatypes.JSONSlice[map[string]any] `json:"experience"`
	Education          datatypes.JSONSlice[map[string]any] `json:"education"`
	Skills             datatypes.JSONSlice[string]         `json:"skills"`
	Certifications     datatypes.JSONSlice[map[string]any] `json:"certifications"`
	Projects           datatypes.JSONSlice[map[string]any] `json:"projects"`
	Languages          datatypes.JSONSlice[map[string]any] `json:"languages"`
	AdditionalSections datatypes.JSONMap                   `json:"additional_sections"`
	SourceFileKey      string                              `gorm:"size:512" json:"source_file_key,omitempty"`
	UpdatedAt          time.Time                           `json:"updated_at"`
}

// ResumeAnalysis 是一次 AI 评估结果，只追加不修改。
type ResumeAnalysis struct {
	Base
	ResumeID            string                                 `gorm:"index;size:36" json:"resume_id"`
	ATSScore            float64                                `json:"ats_score"`
	Strengths           datatypes.JSONSlice[string]            `json:"strengths"`
	Weaknesses          datatypes.JSONSlice[string]            `json:"weaknesses"`
	MissingInformation  datatypes.JSONSlice[string]            `json:"missing_information"`
	Suggestions         datatypes.JSONSlice[string]            `json:"suggestions"`
	KeywordOptimization datatypes.JSONMap                      `json:"keyword_optimization"`
	SectionScores       datatypes.JSONType[map[string]float64] `json:"section_scores"`
}

// CoverLetter 是针对某个职位生成的求职信。
type CoverLetter struct {
	Base
	ResumeID      string `gorm:"index;size:36" json:"resume_id"`
	JobPosting    string `gorm:"type:text" json:"job_posting"`
	CompanyName   string `gorm:"size:255" json:"company_name"`
	PositionTitle string `gorm:"size:255" json:"position_title"`
	Content       string `gorm:"type:text" json:"content"`
}

// JobListing 是从外部职位板归一化后的职位，(ExternalID, Source) 唯一。
type JobListing struct {
	Base
	ExternalID     string                      `gorm:"uniqueIndex:idx_listing_external_source;size:128" json:"external_id"`
	Source         string                      `gorm:"uniqueIndex:idx_listing_external_source;size:64" json:"source"`
	Title          string                      `gorm:"size:255" json:"title"`
	Company        string                      `gorm:"size:255" json:"company"`
	Location       string                      `gorm:"size:255" json:"location"`
	SalaryMin      *float64                    `json:"salary_min,omitempty"`
	SalaryMax      *float64                    `json:"salary_max,omitempty"`
	SalaryCurrency string                      `gorm:"size:8" json:"salary_currency"`
	Description    string                      `gorm:"type:text" json:"description"`
	Requirements   datatypes.JSONSlice[string] `json:"requirements"`
	PostedDate     time.Time                   `json:"posted_date"`
	ApplicationURL string                      `gorm:"size:1024" json:"application_url"`
}

// JobApplication 记录一次投递及其邮件发送状态。
type JobApplication struct {
	ID            string             `gorm:"primaryKey;size:36" json:"id"`
	UserID        string             `gorm:"index;size:128" json:"user_id"`
	ResumeID      string             `gorm:"index;size:36" json:"resume_id"`
	JobID         string             `gorm:"index;size:36" json:"job_id"`
	CompanyName   string             `gorm:"size:255" json:"company_name"`
	PositionTitle string             `gorm:"size:255" json:"position_title"`
	Status        status.Application `gorm:"size:32;index" json:"status"`
	CoverLetterID *string            `gorm:"size:36" json:"cover_letter_id,omitempty"`
	AppliedAt     time.Time          `json:"applied_at"`
	EmailSent     bool               `json:"email_sent"`
	EmailID       *string            `gorm:"size:255" json:"email_id,omitempty"`
}

// BeforeCreate 在插入前分配 UUID 与默认状态。
func (a *JobApplication) BeforeCreate(_ *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.Status == "" {
		a.Status = status.ApplicationPending
	}
	if a.AppliedAt.IsZero() {
		a.AppliedAt = time.Now().UTC()
	}
	return nil
}

// CompanyContact 按公司名查找的联系邮箱。
type CompanyContact struct {
	Base
	CompanyName    string                      `gorm:"uniqueIndex;size:255" json:"company_name"`
	EmailAddresses datatypes.JSONSlice[string] `json:"email_addresses"`
	ContactPerson  *string                     `gorm:"size:255" json:"contact_person,omitempty"`
	Department     *string                     `gorm:"size:255" json:"department,omitempty"`
	Phone          *string                     `gorm:"size:64" json:"phone,omitempty"`
	Website        *string                     `gorm:"size:512" json:"website,omitempty"`
}

// EmailCampaign 批量外联邮件活动。EmailsOpened / RepliesReceived 为预留计数。
type EmailCampaign struct {
	Base
	UserID          string                      `gorm:"index;size:128" json:"user_id"`
	CampaignName    string                      `gorm:"size:255" json:"campaign_name"`
	EmailSubject    string                      `gorm:"size:512" json:"email_subject"`
	EmailTemplate   string                      `gorm:"type:text" json:"email_template"`
	TargetCompanies datatypes.JSONSlice[string] `json:"target_companies"`
	Status          status.Campaign             `gorm:"size:32" json:"status"`
	EmailsSent      int                         `json:"emails_sent"`
	EmailsOpened    int                         `json:"emails_opened"`
	RepliesReceived int                         `json:"replies_received"`
	UpdatedAt       time.Time                   `json:"updated_at"`
}

// AllModels 返回需要迁移的全部模型。
func AllModels() []any {
	return []any{
		&Resume{},
		&ResumeAnalysis{},
		&CoverLetter{},
		&JobListing{},
		&JobApplication{},
		&CompanyContact{},
		&EmailCampaign{},
	}
}

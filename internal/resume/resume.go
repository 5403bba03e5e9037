// Package resume 负责简历的文本投影与整段替换式更新。
package resume

import (
	"strings"
	"time"

	"gorm.io/datatypes"

	"careerPilot/internal/database"
)

// DefaultApplicantName 在简历缺少姓名时使用。
const DefaultApplicantName = "Job Applicant"

// Patch 是创建 / 更新简历时提交的各个段落，零值表示未提供。
type Patch struct {
	PersonalInfo   map[string]any   `json:"personal_info"`
	Summary        string           `json:"summary"`
	Experience     []map[string]any `json:"experience"`
	Education      []map[string]any `json:"education"`
	Skills         []string         `json:"skills"`
	Certifications []map[string]any `json:"certifications"`
	Projects       []map[string]any `json:"projects"`
	Languages      []map[string]any `json:"languages"`
}

// New 根据提交内容构造一份新简历，缺省段落为空集合。
func New(userID string, p Patch) *database.Resume {
	r := &database.Resume{
		UserID:         userID,
		PersonalInfo:   datatypes.JSONMap(p.PersonalInfo),
		Summary:        p.Summary,
		Experience:     p.Experience,
		Education:      p.Education,
		Skills:         p.Skills,
		Certifications: p.Certifications,
		Projects:       p.Projects,
		Languages:      p.Languages,
	}
	Normalize(r)
	return r
}

// Merge 以段落为单位替换：提交为空（未提供、空串、空集合）的段落保留原值。
// additional_sections 不可通过此接口修改。
func Merge(existing *database.Resume, p Patch) {
	if len(p.PersonalInfo) > 0 {
		existing.PersonalInfo = datatypes.JSONMap(p.PersonalInfo)
	}
	if p.Summary != "" {
		existing.Summary = p.Summary
	}
	if len(p.Experience) > 0 {
		existing.Experience = p.Experience
	}
	if len(p.Education) > 0 {
		existing.Education = p.Education
	}
	if len(p.Skills) > 0 {
		existing.Skills = p.Skills
	}
	if len(p.Certifications) > 0 {
		existing.Certifications = p.Certifications
	}
	if len(p.Projects) > 0 {
		existing.Projects = p.Projects
	}
	if len(p.Languages) > 0 {
		existing.Languages = p.Languages
	}
	existing.UpdatedAt = time.Now().UTC()
	Normalize(existing)
}

// Normalize 把 nil 段落替换为空集合，保证序列化结果为 {} / [] 而非 null。
func Normalize(r *database.Resume) {
	if r.PersonalInfo == nil {
		r.PersonalInfo = datatypes.JSONMap{}
	}
	if r.AdditionalSections == nil {
		r.AdditionalSections = datatypes.JSONMap{}
	}
	if r.Skills == nil {
		r.Skills = datatypes.JSONSlice[string]{}
	}
	for _, s := range []*datatypes.JSONSlice[map[string]any]{
		&r.Experience, &r.Education, &r.Certifications, &r.Projects, &r.Languages,
	} {
		if *s == nil {
			*s = datatypes.JSONSlice[map[string]any]{}
		}
	}
}

// ApplicantName 取 personal_info.name，缺失时返回 DefaultApplicantName。
func ApplicantName(r *database.Resume) string {
	if name, ok := r.PersonalInfo["name"].(string); ok && strings.TrimSpace(name) != "" {
		return name
	}
	return DefaultApplicantName
}

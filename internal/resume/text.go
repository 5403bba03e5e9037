package resume

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"careerPilot/internal/database"
)

const (
	summarySkillLimit      = 10
	summaryExperienceLimit = 2
)

// ToText 将简历完整投影为供 LLM 阅读的文本，结构化段落以缩进 JSON 表示。
func ToText(r *database.Resume) string {
	var b strings.Builder
	line(&b, "Personal Information", indent(orEmptyMap(r.PersonalInfo)))
	line(&b, "Summary", r.Summary)
	line(&b, "Experience", indent(orEmptyList(r.Experience)))
	line(&b, "Education", indent(orEmptyList(r.Education)))
	line(&b, "Skills", strings.Join(r.Skills, ", "))
	line(&b, "Certifications", indent(orEmptyList(r.Certifications)))
	line(&b, "Projects", indent(orEmptyList(r.Projects)))
	line(&b, "Languages", indent(orEmptyList(r.Languages)))
	line(&b, "Additional Sections", indent(orEmptyMap(r.AdditionalSections)))
	return b.String()
}

// ToSummary 是求职信使用的截断投影：前 10 项技能、前 2 段经历。
func ToSummary(r *database.Resume) string {
	name := "N/A"
	if v, ok := r.PersonalInfo["name"]; ok {
		name = fmt.Sprint(v)
	}

	skills := []string(r.Skills)
	if len(skills) > summarySkillLimit {
		skills = skills[:summarySkillLimit]
	}

	experience := "None"
	if len(r.Experience) > 0 {
		recent := []map[string]any(r.Experience)
		if len(recent) > summaryExperienceLimit {
			recent = recent[:summaryExperienceLimit]
		}
		experience = indent(recent)
	}

	var b strings.Builder
	line(&b, "Name", name)
	line(&b, "Summary", r.Summary)
	line(&b, "Key Skills", strings.Join(skills, ", "))
	line(&b, "Recent Experience", experience)
	line(&b, "Education", indent(orEmptyList(r.Education)))
	return b.String()
}

func line(b *strings.Builder, label, value string) {
	b.WriteString(label)
	b.WriteString(": ")
	b.WriteString(value)
	b.WriteByte('\n')
}

// indent 原样输出 <、>、&，不做 HTML 转义。
func indent(v any) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		// map[string]any / []map[string]any 来自 JSON 解码，不会失败
		return fmt.Sprint(v)
	}
	return strings.TrimSuffix(buf.String(), "\n")
}

func orEmptyMap(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}

func orEmptyList(l []map[string]any) []map[string]any {
	if l == nil {
		return []map[string]any{}
	}
	return l
}

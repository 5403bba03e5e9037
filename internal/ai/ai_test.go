package ai

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"careerPilot/internal/database"
	"careerPilot/internal/errcode"
	"careerPilot/internal/resume"
)

type fakeChat struct {
	reply    string
	err      error
	requests []Request
}

func (f *fakeChat) Ask(_ context.Context, req Request) (string, error) {
	f.requests = append(f.requests, req)
	return f.reply, f.err
}

func newTestAdvisor(chat ChatModel) *Advisor {
	return NewAdvisor(chat, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func testResume() *database.Resume {
	r := resume.New("user-1", resume.Patch{Summary: "Backend engineer", Skills: []string{"Go"}})
	r.ID = "resume-1"
	return r
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		want    map[string]any
		wantErr bool
	}{
		{name: "fenced", text: "Here you go:\n```json\n{\"a\": 1}\n```\nthanks", want: map[string]any{"a": 1.0}},
		{name: "fence preferred over braces", text: "{\"x\": 0} ```json {\"a\": 2} ``` {\"y\": 1}", want: map[string]any{"a": 2.0}},
		{name: "unterminated fence", text: "```json\n{\"a\": 3}", want: map[string]any{"a": 3.0}},
		{name: "bare braces", text: "Result: {\"a\": {\"b\": true}} end", want: map[string]any{"a": map[string]any{"b": true}}},
		{name: "no json", text: "I cannot help with that", wantErr: true},
		{name: "broken json", text: "{\"a\": }", wantErr: true},
		{name: "reversed braces", text: "} oops {", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got map[string]any
			err := ExtractJSON(tt.text, &got)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAnalyze_ParsesReply(t *testing.T) {
	chat := &fakeChat{reply: "```json\n{\"ats_score\": 88, \"strengths\": [\"Clear\"], \"section_scores\": {\"skills\": 90}}\n```"}
	advisor := newTestAdvisor(chat)

	got, err := advisor.Analyze(context.Background(), testResume())
	require.NoError(t, err)
	assert.Equal(t, 88.0, got.ATSScore)
	assert.Equal(t, []string{"Clear"}, got.Strengths)
	assert.Equal(t, 90.0, got.SectionScores["skills"])

	require.Len(t, chat.requests, 1)
	assert.Equal(t, "resume-analysis-resume-1", chat.requests[0].SessionID)
	assert.Contains(t, chat.requests[0].Prompt, "Summary: Backend engineer")
	assert.Equal(t, systemPrompt, chat.requests[0].System)
}

func TestAnalyze_FallbackOnUnparseableReply(t *testing.T) {
	advisor := newTestAdvisor(&fakeChat{reply: "Sorry, here is prose only."})

	got, err := advisor.Analyze(context.Background(), testResume())
	require.NoError(t, err)
	assert.Equal(t, FallbackAnalysis(), got)
	assert.Equal(t, 75.0, got.ATSScore)
	assert.Equal(t, []string{"Professional experience listed", "Education included"}, got.Strengths)
	assert.Equal(t, 85.0, got.SectionScores["education"])
}

func TestAnalyze_ProviderError(t *testing.T) {
	advisor := newTestAdvisor(&fakeChat{err: errors.New("quota exceeded")})

	_, err := advisor.Analyze(context.Background(), testResume())
	require.Error(t, err)
	assert.True(t, errcode.IsUpstream(err))
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestGenerateCoverLetter(t *testing.T) {
	chat := &fakeChat{reply: "Dear Hiring Manager,"}
	advisor := newTestAdvisor(chat)

	letter, err := advisor.GenerateCoverLetter(context.Background(), testResume(), JobPosting{
		CompanyName:    "Acme",
		PositionTitle:  "Go Developer",
		JobDescription: "Build services",
		Requirements:   []string{"Go", "SQL"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Dear Hiring Manager,", letter)

	req := chat.requests[0]
	assert.Equal(t, "cover-letter-resume-1", req.SessionID)
	assert.Contains(t, req.Prompt, "Company: Acme")
	assert.Contains(t, req.Prompt, "Requirements: Go, SQL")
}

func TestGenerateCoverLetter_EmptyReply(t *testing.T) {
	advisor := newTestAdvisor(&fakeChat{reply: "  \n"})

	_, err := advisor.GenerateCoverLetter(context.Background(), testResume(), JobPosting{})
	assert.True(t, errcode.IsUpstream(err))
}

func TestCheckUploadName(t *testing.T) {
	for _, name := range []string{"cv.pdf", "CV.PDF", "notes.txt", "old.doc", "new.DocX"} {
		assert.NoError(t, CheckUploadName(name), name)
	}
	for _, name := range []string{"resume.exe", "resume", "resume.pdf.zip"} {
		err := CheckUploadName(name)
		assert.True(t, errcode.IsValidation(err), name)
	}
}

func TestParseDocument(t *testing.T) {
	chat := &fakeChat{reply: `{"personal_info": {"name": "Linus"}, "skills": ["C", "Git"]}`}
	advisor := newTestAdvisor(chat)

	patch, err := advisor.ParseDocument(context.Background(), Upload{Filename: "cv.pdf", Data: []byte("%PDF")})
	require.NoError(t, err)
	assert.Equal(t, "Linus", patch.PersonalInfo["name"])
	assert.Equal(t, []string{"C", "Git"}, patch.Skills)

	req := chat.requests[0]
	assert.Contains(t, req.SessionID, "parse-resume-")
	require.Len(t, req.Files, 1)
	assert.Equal(t, DefaultMimeType, req.Files[0].MimeType)
}

func TestParseDocument_Errors(t *testing.T) {
	chat := &fakeChat{reply: "not json"}
	advisor := newTestAdvisor(chat)

	_, err := advisor.ParseDocument(context.Background(), Upload{Filename: "resume.exe"})
	assert.True(t, errcode.IsValidation(err))
	assert.Empty(t, chat.requests, "rejected uploads must not reach the model")

	_, err = advisor.ParseDocument(context.Background(), Upload{Filename: "cv.txt", ContentType: "text/plain"})
	require.Error(t, err)
	assert.True(t, errcode.IsUpstream(err))
	assert.Contains(t, err.Error(), "Error parsing resume content")
	assert.Equal(t, "text/plain", chat.requests[0].Files[0].MimeType)
}

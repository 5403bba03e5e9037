package store_test

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"careerPilot/internal/database"
	"careerPilot/internal/status"
	"careerPilot/internal/store"
	"careerPilot/internal/store/storetest"
)

func TestResumeRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := storetest.New(t)

	in := &database.Resume{
		UserID:       "user-1",
		PersonalInfo: datatypes.JSONMap{"name": "Ada Lovelace", "email": "ada@example.com"},
		Summary:      "Analyst",
		Experience:   datatypes.JSONSlice[map[string]any]{{"title": "Engineer", "company": "Babbage & Co"}},
		Education:    datatypes.JSONSlice[map[string]any]{{"degree": "BSc"}},
		Skills:       datatypes.JSONSlice[string]{"Go", "SQL"},
	}
	require.NoError(t, s.CreateResume(ctx, in))
	require.NotEmpty(t, in.ID)

	got, err := s.GetResume(ctx, in.ID)
	require.NoError(t, err)
	assert.Equal(t, in.UserID, got.UserID)
	assert.Equal(t, in.PersonalInfo, got.PersonalInfo)
	assert.Equal(t, in.Summary, got.Summary)
	assert.Equal(t, in.Experience, got.Experience)
	assert.Equal(t, in.Education, got.Education)
	assert.Equal(t, in.Skills, got.Skills)
}

func TestGetResume_NotFound(t *testing.T) {
	s := storetest.New(t)

	_, err := s.GetResume(context.Background(), "missing")
	assert.True(t, errors.Is(err, store.ErrNotFound))
}

func TestLatestAnalysis(t *testing.T) {
	ctx := context.Background()
	s := storetest.New(t)

	base := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	var latestID string
	for i, offset := range []time.Duration{time.Hour, 3 * time.Hour, 2 * time.Hour} {
		a := &database.ResumeAnalysis{
			Base:     database.Base{CreatedAt: base.Add(offset)},
			ResumeID: "resume-1",
			ATSScore: float64(60 + i),
		}
		require.NoError(t, s.CreateAnalysis(ctx, a))
		if offset == 3*time.Hour {
			latestID = a.ID
		}
	}

	got, err := s.LatestAnalysis(ctx, "resume-1")
	require.NoError(t, err)
	assert.Equal(t, latestID, got.ID)
	assert.Equal(t, 61.0, got.ATSScore)

	_, err = s.LatestAnalysis(ctx, "resume-2")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestInsertJobListingIfAbsent(t *testing.T) {
	ctx := context.Background()
	s := storetest.New(t)

	first := &database.JobListing{ExternalID: "123", Source: "adzuna", Title: "Go Developer"}
	stored, inserted, err := s.InsertJobListingIfAbsent(ctx, first)
	require.NoError(t, err)
	assert.True(t, inserted)

	again := &database.JobListing{ExternalID: "123", Source: "adzuna", Title: "Renamed"}
	existing, inserted, err := s.InsertJobListingIfAbsent(ctx, again)
	require.NoError(t, err)
	assert.False(t, inserted)
	assert.Equal(t, stored.ID, existing.ID)
	assert.Equal(t, "Go Developer", existing.Title)

	other := &database.JobListing{ExternalID: "123", Source: "indeed", Title: "Go Developer"}
	_, inserted, err = s.InsertJobListingIfAbsent(ctx, other)
	require.NoError(t, err)
	assert.True(t, inserted)

	recent, err := s.RecentJobListings(ctx, 50)
	require.NoError(t, err)
	assert.Len(t, recent, 2)
}

func TestTransitionApplication(t *testing.T) {
	ctx := context.Background()
	s := storetest.New(t)

	app := &database.JobApplication{UserID: "u", ResumeID: "r", JobID: "j"}
	require.NoError(t, s.CreateApplication(ctx, app))
	assert.Equal(t, status.ApplicationPending, app.Status)

	updated, err := s.TransitionApplication(ctx, app.ID, status.ApplicationSent, map[string]any{
		"email_sent": true,
		"email_id":   "msg-1",
	})
	require.NoError(t, err)
	assert.Equal(t, status.ApplicationSent, updated.Status)
	assert.True(t, updated.EmailSent)
	require.NotNil(t, updated.EmailID)
	assert.Equal(t, "msg-1", *updated.EmailID)

	_, err = s.TransitionApplication(ctx, app.ID, status.ApplicationFailed, nil)
	assert.ErrorIs(t, err, status.ErrInvalidTransition)
}

func TestTransitionCampaign(t *testing.T) {
	ctx := context.Background()
	s := storetest.New(t)

	c := &database.EmailCampaign{UserID: "u", CampaignName: "spring", Status: status.CampaignDraft}
	require.NoError(t, s.CreateCampaign(ctx, c))

	_, err := s.TransitionCampaign(ctx, c.ID, status.CampaignActive, nil)
	require.NoError(t, err)

	done, err := s.TransitionCampaign(ctx, c.ID, status.CampaignCompleted, map[string]any{"emails_sent": 3})
	require.NoError(t, err)
	assert.Equal(t, status.CampaignCompleted, done.Status)
	assert.Equal(t, 3, done.EmailsSent)

	_, err = s.TransitionCampaign(ctx, c.ID, status.CampaignActive, nil)
	assert.ErrorIs(t, err, status.ErrInvalidTransition)
}

func TestFindContactByCompany(t *testing.T) {
	ctx := context.Background()
	s := storetest.New(t)

	require.NoError(t, s.CreateContact(ctx, &database.CompanyContact{
		CompanyName:    "Acme",
		EmailAddresses: datatypes.JSONSlice[string]{"hr@acme.test"},
	}))

	c, err := s.FindContactByCompany(ctx, "Acme")
	require.NoError(t, err)
	assert.Equal(t, []string{"hr@acme.test"}, []string(c.EmailAddresses))

	_, err = s.FindContactByCompany(ctx, "Globex")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestListCapAppliesToResumesOnly(t *testing.T) {
	ctx := context.Background()
	s := storetest.New(t)
	const n = store.MaxListResults + 5

	for i := 0; i < n; i++ {
		id := strconv.Itoa(i)
		require.NoError(t, s.CreateResume(ctx, &database.Resume{UserID: "u"}))
		require.NoError(t, s.CreateApplication(ctx, &database.JobApplication{UserID: "u", ResumeID: "r", JobID: id}))
		_, _, err := s.InsertJobListingIfAbsent(ctx, &database.JobListing{ExternalID: id, Source: "adzuna"})
		require.NoError(t, err)
	}

	resumes, err := s.ListResumesByUser(ctx, "u", 0)
	require.NoError(t, err)
	assert.Len(t, resumes, store.MaxListResults)

	apps, err := s.ListApplicationsByUser(ctx, "u")
	require.NoError(t, err)
	assert.Len(t, apps, n)

	jobs, err := s.RecentJobListings(ctx, n)
	require.NoError(t, err)
	assert.Len(t, jobs, n)

	jobs, err = s.RecentJobListings(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, jobs, 3)
}

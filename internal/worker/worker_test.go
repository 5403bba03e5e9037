package worker

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"careerPilot/internal/database"
	"careerPilot/internal/mailer"
	"careerPilot/internal/status"
	"careerPilot/internal/store"
	"careerPilot/internal/store/storetest"
	"careerPilot/internal/tasks"
)

type fakeNotifier struct {
	mu       sync.Mutex
	messages []StatusNotifyMessage
	users    []string
}

func (f *fakeNotifier) Notify(_ context.Context, userID string, msg StatusNotifyMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users = append(f.users, userID)
	f.messages = append(f.messages, msg)
	return nil
}

type fakeMailer struct {
	err          error
	failCompany  map[string]bool
	applications []mailer.Application
	campaigns    [][]string
}

func (f *fakeMailer) SendApplication(_ context.Context, app mailer.Application) (string, error) {
	f.applications = append(f.applications, app)
	if f.err != nil {
		return "", f.err
	}
	return "email-123", nil
}

func (f *fakeMailer) SendCampaign(_ context.Context, to []string, _, _ string) (string, error) {
	f.campaigns = append(f.campaigns, to)
	for _, addr := range to {
		if f.failCompany[addr] {
			return "", errors.New("mailbox unavailable")
		}
	}
	return "email-456", nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func emailTask(t *testing.T, appID string) *asynq.Task {
	t.Helper()
	task, err := tasks.NewEmailApplicationTask(tasks.EmailApplicationPayload{
		ApplicationID: appID,
		ApplicantName: "Ada Lovelace",
		CompanyName:   "Acme",
		PositionTitle: "Go Developer",
		CoverLetter:   "Dear Acme",
		Recipients:    []string{"hr@acme.com"},
		CorrelationID: "corr-1",
	})
	require.NoError(t, err)
	return task
}

func newPendingApplication(t *testing.T, s *store.Store) *database.JobApplication {
	t.Helper()
	app := &database.JobApplication{UserID: "user-1", ResumeID: "r", JobID: "j"}
	require.NoError(t, s.CreateApplication(context.Background(), app))
	return app
}

func TestEmailTaskHandler_Success(t *testing.T) {
	s := storetest.New(t)
	app := newPendingApplication(t, s)
	m := &fakeMailer{}
	n := &fakeNotifier{}
	h := NewEmailTaskHandler(s, m, n, discardLogger())

	require.NoError(t, h.ProcessTask(context.Background(), emailTask(t, app.ID)))

	got, err := s.GetApplication(context.Background(), app.ID)
	require.NoError(t, err)
	assert.Equal(t, status.ApplicationSent, got.Status)
	assert.True(t, got.EmailSent)
	require.NotNil(t, got.EmailID)
	assert.Equal(t, "email-123", *got.EmailID)

	require.Len(t, m.applications, 1)
	assert.Equal(t, []string{"hr@acme.com"}, m.applications[0].Recipients)

	require.Len(t, n.messages, 1)
	assert.Equal(t, "user-1", n.users[0])
	assert.Equal(t, "sent", n.messages[0].Status)
	assert.Equal(t, KindApplication, n.messages[0].Kind)
}

func TestEmailTaskHandler_FailureMarksFailedWithoutRetry(t *testing.T) {
	s := storetest.New(t)
	app := newPendingApplication(t, s)
	n := &fakeNotifier{}
	h := NewEmailTaskHandler(s, &fakeMailer{err: errors.New("domain not verified")}, n, discardLogger())

	err := h.ProcessTask(context.Background(), emailTask(t, app.ID))
	require.Error(t, err)
	assert.ErrorIs(t, err, asynq.SkipRetry)

	got, err := s.GetApplication(context.Background(), app.ID)
	require.NoError(t, err)
	assert.Equal(t, status.ApplicationFailed, got.Status)
	assert.False(t, got.EmailSent)
	assert.Nil(t, got.EmailID)

	require.Len(t, n.messages, 1)
	assert.Equal(t, "failed", n.messages[0].Status)
	assert.Contains(t, n.messages[0].ErrorMessage, "domain not verified")
}

func TestEmailTaskHandler_DuplicateDeliveryIsDropped(t *testing.T) {
	s := storetest.New(t)
	app := newPendingApplication(t, s)
	m := &fakeMailer{}
	h := NewEmailTaskHandler(s, m, &fakeNotifier{}, discardLogger())

	require.NoError(t, h.ProcessTask(context.Background(), emailTask(t, app.ID)))
	require.NoError(t, h.ProcessTask(context.Background(), emailTask(t, app.ID)))
	assert.Len(t, m.applications, 1)
}

func TestEmailTaskHandler_MissingApplication(t *testing.T) {
	m := &fakeMailer{}
	h := NewEmailTaskHandler(storetest.New(t), m, &fakeNotifier{}, discardLogger())

	require.NoError(t, h.ProcessTask(context.Background(), emailTask(t, "gone")))
	assert.Empty(t, m.applications)
}

func TestEmailTaskHandler_BadPayload(t *testing.T) {
	h := NewEmailTaskHandler(storetest.New(t), &fakeMailer{}, &fakeNotifier{}, discardLogger())

	err := h.ProcessTask(context.Background(), asynq.NewTask(tasks.TypeEmailApplication, []byte("{")))
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func newCampaignHandler(s *store.Store, m *fakeMailer, n *fakeNotifier) (*CampaignTaskHandler, *[]time.Duration) {
	var pauses []time.Duration
	h := NewCampaignTaskHandler(s, m, n, discardLogger())
	h.pause = func(_ context.Context, d time.Duration) { pauses = append(pauses, d) }
	return h, &pauses
}

func createCampaign(t *testing.T, s *store.Store, targets ...string) *database.EmailCampaign {
	t.Helper()
	c := &database.EmailCampaign{
		UserID:          "user-1",
		CampaignName:    "outreach",
		EmailSubject:    "Hello",
		EmailTemplate:   "<p>Hi</p>",
		TargetCompanies: targets,
		Status:          status.CampaignDraft,
	}
	require.NoError(t, s.CreateCampaign(context.Background(), c))
	return c
}

func addContact(t *testing.T, s *store.Store, company string, emails ...string) {
	t.Helper()
	require.NoError(t, s.CreateContact(context.Background(), &database.CompanyContact{
		CompanyName:    company,
		EmailAddresses: datatypes.JSONSlice[string](emails),
	}))
}

func runCampaign(t *testing.T, h *CampaignTaskHandler, id string) error {
	t.Helper()
	task, err := tasks.NewCampaignRunTask(id, "corr-2")
	require.NoError(t, err)
	return h.ProcessTask(context.Background(), task)
}

func TestCampaignTaskHandler_SkipsCompaniesWithoutContact(t *testing.T) {
	s := storetest.New(t)
	addContact(t, s, "A", "hello@a.test")
	c := createCampaign(t, s, "A", "B")
	m := &fakeMailer{}
	n := &fakeNotifier{}
	h, pauses := newCampaignHandler(s, m, n)

	require.NoError(t, runCampaign(t, h, c.ID))

	got, err := s.GetCampaign(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Equal(t, status.CampaignCompleted, got.Status)
	assert.Equal(t, 1, got.EmailsSent)
	assert.Equal(t, [][]string{{"hello@a.test"}}, m.campaigns)
	assert.Equal(t, []time.Duration{CampaignPause}, *pauses)

	require.Len(t, n.messages, 2)
	assert.Equal(t, "active", n.messages[0].Status)
	assert.Equal(t, "completed", n.messages[1].Status)
	require.NotNil(t, n.messages[1].EmailsSent)
	assert.Equal(t, 1, *n.messages[1].EmailsSent)
}

func TestCampaignTaskHandler_SendFailureContinues(t *testing.T) {
	s := storetest.New(t)
	addContact(t, s, "A", "down@a.test")
	addContact(t, s, "B", "ok@b.test")
	addContact(t, s, "C", "ok@c.test")
	c := createCampaign(t, s, "A", "B", "C")
	m := &fakeMailer{failCompany: map[string]bool{"down@a.test": true}}
	h, pauses := newCampaignHandler(s, m, &fakeNotifier{})

	require.NoError(t, runCampaign(t, h, c.ID))

	got, err := s.GetCampaign(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.EmailsSent)
	assert.Len(t, m.campaigns, 3)
	assert.Len(t, *pauses, 2, "pause only after successful sends")
}

func TestCampaignTaskHandler_CompletedCampaignIsNotRerun(t *testing.T) {
	s := storetest.New(t)
	addContact(t, s, "A", "hello@a.test")
	c := createCampaign(t, s, "A")
	m := &fakeMailer{}
	h, _ := newCampaignHandler(s, m, &fakeNotifier{})

	require.NoError(t, runCampaign(t, h, c.ID))
	require.NoError(t, runCampaign(t, h, c.ID))
	assert.Len(t, m.campaigns, 1)
}

func TestNotifyChannel(t *testing.T) {
	assert.Equal(t, "user_notify:user-42", NotifyChannel("user-42"))
}

func TestCampaignTaskHandler_ActiveCampaignIsNotRerun(t *testing.T) {
	s := storetest.New(t)
	addContact(t, s, "A", "hello@a.test")
	c := createCampaign(t, s, "A")
	_, err := s.TransitionCampaign(context.Background(), c.ID, status.CampaignActive, nil)
	require.NoError(t, err)
	m := &fakeMailer{}
	n := &fakeNotifier{}
	h, _ := newCampaignHandler(s, m, n)

	require.NoError(t, runCampaign(t, h, c.ID))

	assert.Empty(t, m.campaigns)
	assert.Empty(t, n.messages)
	got, err := s.GetCampaign(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Equal(t, status.CampaignActive, got.Status)
}

// claimRacingStore 模拟另一个任务在读取之后抢先把活动置为 active。
type claimRacingStore struct {
	*store.Store
	raced bool
}

func (s *claimRacingStore) TransitionCampaign(ctx context.Context, id string, to status.Campaign, fields map[string]any) (*database.EmailCampaign, error) {
	if !s.raced && to == status.CampaignActive {
		s.raced = true
		if _, err := s.Store.TransitionCampaign(ctx, id, status.CampaignActive, nil); err != nil {
			return nil, err
		}
	}
	return s.Store.TransitionCampaign(ctx, id, to, fields)
}

func TestCampaignTaskHandler_LostClaimIsDropped(t *testing.T) {
	s := storetest.New(t)
	addContact(t, s, "A", "hello@a.test")
	c := createCampaign(t, s, "A")
	m := &fakeMailer{}
	h := NewCampaignTaskHandler(&claimRacingStore{Store: s}, m, &fakeNotifier{}, discardLogger())
	h.pause = func(context.Context, time.Duration) {}

	require.NoError(t, runCampaign(t, h, c.ID))
	assert.Empty(t, m.campaigns)
}

func TestCampaignTaskHandler_CancelledRunIsFinalized(t *testing.T) {
	s := storetest.New(t)
	addContact(t, s, "A", "hello@a.test")
	addContact(t, s, "B", "hello@b.test")
	c := createCampaign(t, s, "A", "B")
	m := &fakeMailer{}
	n := &fakeNotifier{}
	h := NewCampaignTaskHandler(s, m, n, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h.pause = func(context.Context, time.Duration) { cancel() }

	task, err := tasks.NewCampaignRunTask(c.ID, "corr-3")
	require.NoError(t, err)
	require.NoError(t, h.ProcessTask(ctx, task))

	assert.Len(t, m.campaigns, 1)
	got, err := s.GetCampaign(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Equal(t, status.CampaignCompleted, got.Status)
	assert.Equal(t, 1, got.EmailsSent)

	require.Len(t, n.messages, 2)
	assert.Equal(t, "completed", n.messages[1].Status)
}

type failingTransitionStore struct {
	*store.Store
}

func (failingTransitionStore) TransitionApplication(context.Context, string, status.Application, map[string]any) (*database.JobApplication, error) {
	return nil, errors.New("connection reset")
}

func TestEmailTaskHandler_UnrecordedSendLogsEmailID(t *testing.T) {
	s := storetest.New(t)
	app := newPendingApplication(t, s)
	var logs bytes.Buffer
	n := &fakeNotifier{}
	h := NewEmailTaskHandler(failingTransitionStore{Store: s}, &fakeMailer{}, n, slog.New(slog.NewTextHandler(&logs, nil)))

	require.NoError(t, h.ProcessTask(context.Background(), emailTask(t, app.ID)))

	assert.Contains(t, logs.String(), "email sent but status not recorded")
	assert.Contains(t, logs.String(), "email_id=email-123")
	assert.Empty(t, n.messages)
}

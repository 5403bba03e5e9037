package mailer

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"careerPilot/internal/config"
)

type recordingSender struct {
	sent []Message
}

func (r *recordingSender) Send(_ context.Context, msg Message) (string, error) {
	r.sent = append(r.sent, msg)
	return "msg-1", nil
}

func TestSendApplication(t *testing.T) {
	rec := &recordingSender{}
	m := New(rec, "apply@careerpilot.test")

	id, err := m.SendApplication(context.Background(), Application{
		ApplicantName: "Ada Lovelace",
		CompanyName:   "Acme",
		PositionTitle: "Go Developer",
		CoverLetter:   "First paragraph.\n\nSecond <b>paragraph</b>.",
		Recipients:    []string{"hr@acme.com"},
	})
	require.NoError(t, err)
	assert.Equal(t, "msg-1", id)

	require.Len(t, rec.sent, 1)
	msg := rec.sent[0]
	assert.Equal(t, "Ada Lovelace <apply@careerpilot.test>", msg.From)
	assert.Equal(t, "Application for Go Developer Position - Ada Lovelace", msg.Subject)
	assert.Equal(t, []string{"hr@acme.com"}, msg.To)
	assert.Contains(t, msg.HTML, "<p>First paragraph.</p>")
	assert.Contains(t, msg.HTML, "Second &lt;b&gt;paragraph&lt;/b&gt;.")
	assert.Contains(t, msg.HTML, "Best regards,<br>Ada Lovelace")
}

func TestSendCampaign_SanitizesBody(t *testing.T) {
	rec := &recordingSender{}
	m := New(rec, "outreach@careerpilot.test")

	_, err := m.SendCampaign(context.Background(), []string{"a@b.test"}, "Hello <team>",
		`<p>Hi there</p><script>alert(1)</script>`)
	require.NoError(t, err)

	msg := rec.sent[0]
	assert.Equal(t, "Hello <team>", msg.Subject)
	assert.Equal(t, "outreach@careerpilot.test", msg.From)
	assert.Contains(t, msg.HTML, "<p>Hi there</p>")
	assert.NotContains(t, msg.HTML, "<script>")
}

func TestResendSend(t *testing.T) {
	var got Message
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/emails", r.URL.Path)
		assert.Equal(t, "Bearer re_test", r.Header.Get("Authorization"))
		body, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(body, &got))
		_, _ = io.WriteString(w, `{"id":"49a3999c-0ce1-4ea6-ab68-afcd6dc2e794"}`)
	}))
	defer srv.Close()

	client := NewResend(config.EmailConfig{APIKey: "re_test", BaseURL: srv.URL + "/"}, srv.Client())
	id, err := client.Send(context.Background(), Message{From: "a@b.test", To: []string{"c@d.test"}, Subject: "s", HTML: "<p>x</p>"})
	require.NoError(t, err)
	assert.Equal(t, "49a3999c-0ce1-4ea6-ab68-afcd6dc2e794", id)
	assert.Equal(t, []string{"c@d.test"}, got.To)
}

func TestResendSend_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = io.WriteString(w, `{"name":"validation_error","message":"Invalid from field"}`)
	}))
	defer srv.Close()

	client := NewResend(config.EmailConfig{APIKey: "k", BaseURL: srv.URL}, srv.Client())

	_, err := client.Send(context.Background(), Message{To: []string{"x@y.test"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid from field")

	_, err = client.Send(context.Background(), Message{})
	assert.EqualError(t, err, "no recipients")
}

func TestParseAddresses(t *testing.T) {
	got, err := ParseAddresses([]string{" hr@acme.io ", "Jane Doe <jane@acme.io>"})
	require.NoError(t, err)
	assert.Equal(t, []string{"hr@acme.io", "jane@acme.io"}, got)

	_, err = ParseAddresses([]string{"hr@acme.io", "not-an-address"})
	assert.ErrorContains(t, err, "not-an-address")
}

package mailer

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/mail"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/pkg/errors"
)

var applicationTemplate = template.Must(template.New("application").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333333;">
  <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
    <p>Dear Hiring Manager at {{.CompanyName}},</p>
    <p>Please find my application for the {{.PositionTitle}} position below.</p>
    <div style="background-color: #f8f9fa; border-left: 4px solid #2563eb; padding: 20px; margin: 20px 0;">
      {{range .Paragraphs}}<p>{{.}}</p>
      {{end}}
    </div>
    <p>Thank you for your time and consideration.</p>
    <p>Best regards,<br>{{.ApplicantName}}</p>
    <hr style="border: none; border-top: 1px solid #dddddd; margin: 30px 0;">
    <p style="font-size: 12px; color: #888888;">This application was sent through an automated job application assistant. Please reply directly to this email to contact the applicant.</p>
  </div>
</body>
</html>
`))

// Application 是一封投递邮件的内容。
type Application struct {
	ApplicantName string
	CompanyName   string
	PositionTitle string
	CoverLetter   string
	Recipients    []string
}

// Mailer 负责渲染模板与格式化发件人，实际投递交给 Sender。
type Mailer struct {
	sender Sender
	from   string
	policy *bluemonday.Policy
}

// New 创建 Mailer；from 为配置的发件地址。
func New(sender Sender, from string) *Mailer {
	return &Mailer{sender: sender, from: from, policy: bluemonday.UGCPolicy()}
}

// ParseAddresses 校验并规范化收件地址，去掉显示名只保留邮箱部分。
func ParseAddresses(raw []string) ([]string, error) {
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		addr, err := mail.ParseAddress(strings.TrimSpace(r))
		if err != nil {
			return nil, fmt.Errorf("invalid email address: %s", r)
		}
		out = append(out, addr.Address)
	}
	return out, nil
}

// ApplicationSubject 返回投递邮件标题。
func ApplicationSubject(position, applicant string) string {
	return fmt.Sprintf("Application for %s Position - %s", position, applicant)
}

// FormatSender 返回 "{name} <{address}>" 形式的发件人。
func FormatSender(name, address string) string {
	return fmt.Sprintf("%s <%s>", name, address)
}

// RenderApplication 渲染投递邮件正文，求职信按空行分段。
func RenderApplication(app Application) (string, error) {
	var paragraphs []string
	for _, p := range strings.Split(strings.ReplaceAll(app.CoverLetter, "\r\n", "\n"), "\n\n") {
		if p = strings.TrimSpace(p); p != "" {
			paragraphs = append(paragraphs, p)
		}
	}

	var buf bytes.Buffer
	err := applicationTemplate.Execute(&buf, struct {
		Application
		Paragraphs []string
	}{app, paragraphs})
	if err != nil {
		return "", errors.Wrap(err, "render application email")
	}
	return buf.String(), nil
}

// SendApplication 以申请人名义发送投递邮件，返回服务商消息 ID。
func (m *Mailer) SendApplication(ctx context.Context, app Application) (string, error) {
	html, err := RenderApplication(app)
	if err != nil {
		return "", err
	}
	return m.sender.Send(ctx, Message{
		From:    FormatSender(app.ApplicantName, m.from),
		To:      app.Recipients,
		Subject: ApplicationSubject(app.PositionTitle, app.ApplicantName),
		HTML:    html,
	})
}

// SendCampaign 发送活动邮件。标题原样使用，正文经 UGC 策略清洗。
func (m *Mailer) SendCampaign(ctx context.Context, to []string, subject, body string) (string, error) {
	return m.sender.Send(ctx, Message{
		From:    m.from,
		To:      to,
		Subject: subject,
		HTML:    m.policy.Sanitize(body),
	})
}

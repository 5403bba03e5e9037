// Package ai 封装对 LLM 的调用：简历评估、求职信生成与上传文档解析。
package ai

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"

	"careerPilot/internal/config"
)

// File 是随提示一同发送给模型的附件。
type File struct {
	Name     string
	MimeType string
	Data     []byte
}

// Request 是一次单轮对话请求。
type Request struct {
	// SessionID 标识任务类型与对象，例如 resume-analysis-{id}。
	SessionID string
	System    string
	Prompt    string
	Files     []File
}

// ChatModel 执行一次请求并返回模型的文本回复，不做重试。
type ChatModel interface {
	Ask(ctx context.Context, req Request) (string, error)
}

// Gemini 基于 langchaingo 的 googleai 实现 ChatModel。
type Gemini struct {
	model llms.Model
}

// NewGemini 创建 Gemini 客户端。
func NewGemini(ctx context.Context, cfg config.LLMConfig) (*Gemini, error) {
	model, err := googleai.New(ctx,
		googleai.WithAPIKey(cfg.APIKey),
		googleai.WithDefaultModel(cfg.Model),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create gemini client")
	}
	return &Gemini{model: model}, nil
}

// Ask 实现 ChatModel。
func (g *Gemini) Ask(ctx context.Context, req Request) (string, error) {
	parts := []llms.ContentPart{llms.TextContent{Text: req.Prompt}}
	for _, f := range req.Files {
		parts = append(parts, llms.BinaryPart(f.MimeType, f.Data))
	}

	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, req.System),
		{Role: llms.ChatMessageTypeHuman, Parts: parts},
	}

	resp, err := g.model.GenerateContent(ctx, messages)
	if err != nil {
		return "", errors.Wrapf(err, "gemini request %s", req.SessionID)
	}
	if len(resp.Choices) == 0 {
		return "", errors.Errorf("gemini request %s: empty response", req.SessionID)
	}

	var b strings.Builder
	for _, choice := range resp.Choices {
		b.WriteString(choice.Content)
	}
	return b.String(), nil
}

package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
)

// ErrMalformedReply is returned when the model's reply carries no usable
// answer object.
var ErrMalformedReply = errors.New("malformed reply")

// Query is one question for the external reasoning service.
type Query struct {
	Utterance string
	// Summary describes the dataset: schema, counts and sample rows.
	Summary string
	// History holds earlier user/assistant exchanges, oldest first.
	History []Message
}

type ReplyChart struct {
	Kind       string    `json:"kind"`
	Title      string    `json:"title"`
	Categories []string  `json:"categories"`
	Series     []float64 `json:"series"`
}

// Reply is the structured answer the service is asked to produce.
type Reply struct {
	AnswerText string      `json:"answer_text"`
	Confidence float64     `json:"confidence"`
	Chart      *ReplyChart `json:"chart,omitempty"`
}

const systemPrompt = `You are a data analyst answering questions about one tabular dataset.
Use only the dataset description you are given. Reply with a single JSON object and nothing else:
{"answer_text": string, "confidence": number between 0 and 1, "chart": {"kind": "bar"|"line"|"pie"|"none", "title": string, "categories": [string], "series": [number]}}
Omit "chart" or use kind "none" when a chart would not help. Keep answer_text under 120 words.`

type ReasonerConfig struct {
	Runtime     Runtime
	Model       string
	MaxTokens   int
	Temperature float64
	Logger      *slog.Logger
}

func (c *ReasonerConfig) Validate() error {
	if c.Runtime == nil {
		return errors.New("runtime is required")
	}
	if c.Model == "" {
		return errors.New("model is required")
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = 800
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return nil
}

// Reasoner asks a Runtime to answer a question about a dataset summary and
// parses the JSON reply.
type Reasoner struct {
	cfg ReasonerConfig
}

func NewReasoner(cfg ReasonerConfig) (*Reasoner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid reasoner config: %w", err)
	}
	return &Reasoner{cfg: cfg}, nil
}

func (r *Reasoner) Reason(ctx context.Context, q Query) (Reply, error) {
	req := GenerateRequest{
		Model:       r.cfg.Model,
		Messages:    r.messages(q),
		MaxTokens:   r.cfg.MaxTokens,
		Temperature: r.cfg.Temperature,
	}
	resp, err := r.cfg.Runtime.Generate(ctx, req)
	if err != nil {
		return Reply{}, fmt.Errorf("generate: %w", err)
	}
	r.cfg.Logger.Debug("external reply received", "model", r.cfg.Model, "request_id", resp.RequestID, "total_tokens", resp.Usage.TotalTokens)
	return ParseReply(resp.Text())
}

// messages lays out the system prompt, the prior turns and the question.
// The dataset summary is cut so the prompt stays within a quarter of the
// model's context window.
func (r *Reasoner) messages(q Query) []Message {
	budget := 8192 / 4
	if mi, ok := LookupModel(r.cfg.Model); ok {
		budget = mi.ContextTokens / 4
	}
	summary := q.Summary
	if CountTokens(summary) > budget {
		summary = TruncateToTokenLimit(summary, budget) + "\n[summary truncated]"
	}
	msgs := []Message{{Role: "system", Content: systemPrompt}}
	msgs = append(msgs, q.History...)
	var b strings.Builder
	b.WriteString("Dataset:\n")
	b.WriteString(summary)
	b.WriteString("\n\nQuestion: ")
	b.WriteString(strings.TrimSpace(q.Utterance))
	msgs = append(msgs, Message{Role: "user", Content: b.String()})
	return msgs
}

var jsonObject = regexp.MustCompile(`\{[\s\S]*\}`)

// ParseReply extracts the JSON object embedded in a model reply. Replies
// without an object or without answer_text are malformed.
func ParseReply(text string) (Reply, error) {
	raw := jsonObject.FindString(text)
	if raw == "" {
		return Reply{}, fmt.Errorf("%w: no JSON object found", ErrMalformedReply)
	}
	var out Reply
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return Reply{}, fmt.Errorf("%w: %v", ErrMalformedReply, err)
	}
	out.AnswerText = strings.TrimSpace(out.AnswerText)
	if out.AnswerText == "" {
		return Reply{}, fmt.Errorf("%w: missing answer_text", ErrMalformedReply)
	}
	return out, nil
}

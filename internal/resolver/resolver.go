package resolver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"
	"time"

	"github.com/KaramelBytes/queryloom/internal/ai"
	"github.com/KaramelBytes/queryloom/internal/analytics"
	"github.com/KaramelBytes/queryloom/internal/chart"
	"github.com/KaramelBytes/queryloom/internal/intent"
	"github.com/KaramelBytes/queryloom/internal/metrics"
	"github.com/KaramelBytes/queryloom/internal/params"
	"github.com/KaramelBytes/queryloom/internal/profile"
	"github.com/KaramelBytes/queryloom/internal/session"
)

// Source names the path that produced an answer.
type Source string

const (
	SourceExternal Source = "external"
	SourceLocal    Source = "local"
)

// State is a step of the per-question resolution machine.
type State int

const (
	Idle State = iota
	ExternalAttempt
	LocalPath
	Resolved
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case ExternalAttempt:
		return "external_attempt"
	case LocalPath:
		return "local_path"
	case Resolved:
		return "resolved"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Response is the answer to one question.
type Response struct {
	AnswerText  string            `json:"answer_text"`
	Confidence  float64           `json:"confidence"`
	Chart       *chart.Descriptor `json:"chart"`
	Source      Source            `json:"source"`
	Intent      *intent.Intent    `json:"intent,omitempty"`
	Suggestions []string          `json:"suggestions,omitempty"`
	// Degraded is set when the external service was tried and the answer
	// came from the local path instead.
	Degraded bool `json:"degraded,omitempty"`
	// Cause is the error behind a zero-confidence or degraded answer.
	Cause error `json:"-"`
}

// Reasoner answers a question through an external service.
type Reasoner interface {
	Reason(ctx context.Context, q ai.Query) (ai.Reply, error)
}

// Classifier maps an utterance to an intent.
type Classifier interface {
	Classify(utterance string, recent []intent.Category) intent.Intent
}

type Config struct {
	Sessions   *session.Store
	Classifier Classifier
	// Reasoner is optional. Without one every question goes to the local
	// path.
	Reasoner Reasoner
	// ExternalTimeout bounds the external attempt. Zero means 4s.
	ExternalTimeout time.Duration
	// SampleRows is the number of rows in the summary sent to the reasoner.
	SampleRows int
	// RecentTurns is how many earlier turns feed the classifier's locality
	// bias and the reasoner's history.
	RecentTurns int
	Engine      analytics.Options
	Logger      *slog.Logger
}

func (c *Config) Validate() error {
	if c.Sessions == nil {
		return errors.New("session store is required")
	}
	if c.Classifier == nil {
		return errors.New("classifier is required")
	}
	if c.ExternalTimeout <= 0 {
		c.ExternalTimeout = 4 * time.Second
	}
	if c.SampleRows <= 0 {
		c.SampleRows = 5
	}
	if c.RecentTurns <= 0 {
		c.RecentTurns = 5
	}
	if c.Engine.Horizon <= 0 {
		c.Engine = analytics.DefaultOptions()
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return nil
}

// Resolver answers questions about datasets held in a session store. It is
// safe for concurrent use.
type Resolver struct {
	cfg Config
	log *slog.Logger
}

func New(cfg Config) (*Resolver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid resolver config: %w", err)
	}
	return &Resolver{cfg: cfg, log: cfg.Logger}, nil
}

// Resolve answers utterance against the dataset loaded under datasetID.
// It always returns a response; failures become explanations with
// confidence 0. The exchange is recorded in the session.
func (r *Resolver) Resolve(ctx context.Context, utterance, datasetID string) Response {
	start := time.Now()
	snap, ok := r.cfg.Sessions.Snapshot(datasetID)
	var resp Response
	if !ok {
		resp = Response{
			AnswerText: "No dataset is loaded for this session. Load a CSV or Excel file first.",
			Chart:      empty(),
			Source:     SourceLocal,
			Cause:      fmt.Errorf("dataset %s: %w", datasetID, session.ErrNotFound),
		}
	} else {
		resp = r.safeRun(ctx, utterance, snap)
		turn := session.Turn{Utterance: utterance, Answer: resp.AnswerText, Source: string(resp.Source)}
		if resp.Intent != nil {
			turn.Category = resp.Intent.Category
		}
		if err := r.cfg.Sessions.Record(datasetID, turn); err != nil {
			r.log.Debug("turn not recorded", "dataset_id", datasetID, "error", err)
		}
	}
	metrics.Queries.WithLabelValues(string(resp.Source)).Inc()
	metrics.ResolveDuration.WithLabelValues(string(resp.Source)).Observe(time.Since(start).Seconds())
	return resp
}

func (r *Resolver) safeRun(ctx context.Context, utterance string, snap session.Snapshot) (resp Response) {
	defer func() {
		if p := recover(); p != nil {
			metrics.Panics.Inc()
			r.log.Error("panic while resolving", "panic", p, "stack", string(debug.Stack()))
			resp = Response{
				AnswerText: "Sorry, something went wrong while analyzing your question. Please try rephrasing it.",
				Chart:      empty(),
				Source:     SourceLocal,
				Cause:      fmt.Errorf("panic: %v", p),
			}
		}
	}()
	return r.run(ctx, utterance, snap)
}

// run drives the machine from Idle to Resolved.
func (r *Resolver) run(ctx context.Context, utterance string, snap session.Snapshot) Response {
	var (
		state    = Idle
		resp     Response
		fallback error
	)
	for state != Resolved {
		switch state {
		case Idle:
			state = LocalPath
			if r.cfg.Reasoner != nil {
				state = ExternalAttempt
			}
		case ExternalAttempt:
			reply, err := r.external(ctx, utterance, snap)
			if err != nil {
				reason := fallbackReason(err)
				metrics.Fallbacks.WithLabelValues(reason).Inc()
				r.log.Debug("external path failed, answering locally", "reason", reason, "error", err)
				fallback = fmt.Errorf("%w: %w", ErrExternalUnavailable, err)
				state = LocalPath
				continue
			}
			resp = assembleExternal(reply)
			state = Resolved
		case LocalPath:
			resp = r.local(utterance, snap)
			if fallback != nil {
				resp.Degraded = true
				if resp.Cause == nil {
					resp.Cause = fallback
				}
			}
			state = Resolved
		}
	}
	return resp
}

// external runs the reasoner under its own deadline. The call happens on a
// separate goroutine so a reasoner that ignores its context cannot hold up
// the fallback.
func (r *Resolver) external(ctx context.Context, utterance string, snap session.Snapshot) (ai.Reply, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.ExternalTimeout)
	defer cancel()

	q := ai.Query{
		Utterance: utterance,
		Summary:   profile.Summary(snap.Dataset, snap.Schema, r.cfg.SampleRows),
		History:   history(snap.Turns, r.cfg.RecentTurns),
	}
	type outcome struct {
		reply ai.Reply
		err   error
	}
	done := make(chan outcome, 1)
	start := time.Now()
	defer func() { metrics.ExternalDuration.Observe(time.Since(start).Seconds()) }()
	go func() {
		defer func() {
			if p := recover(); p != nil {
				metrics.Panics.Inc()
				done <- outcome{err: fmt.Errorf("reasoner panic: %v", p)}
			}
		}()
		reply, err := r.cfg.Reasoner.Reason(ctx, q)
		done <- outcome{reply: reply, err: err}
	}()

	select {
	case o := <-done:
		if o.err != nil {
			return ai.Reply{}, o.err
		}
		if strings.TrimSpace(o.reply.AnswerText) == "" {
			return ai.Reply{}, fmt.Errorf("%w: missing answer_text", ai.ErrMalformedReply)
		}
		return o.reply, nil
	case <-ctx.Done():
		return ai.Reply{}, ctx.Err()
	}
}

// local answers without the external service: guard, classify, extract,
// dispatch, normalize and assemble.
func (r *Resolver) local(utterance string, snap session.Snapshot) Response {
	if msg, stop := guard(utterance, snap.Schema); stop {
		return Response{
			AnswerText:  msg,
			Chart:       empty(),
			Source:      SourceLocal,
			Suggestions: Suggestions(snap.Schema),
			Cause:       ErrNoIntentMatch,
		}
	}
	in := r.cfg.Classifier.Classify(utterance, snap.Recent(r.cfg.RecentTurns))
	metrics.Intents.WithLabelValues(string(in.Category)).Inc()
	if !in.Matched() {
		r.log.Debug("no intent matched", "utterance", utterance, "best_score", in.Score)
		return Response{
			AnswerText:  "I couldn't work out which analysis you want. Try phrasing it like one of these:",
			Chart:       empty(),
			Source:      SourceLocal,
			Intent:      &in,
			Suggestions: Suggestions(snap.Schema),
			Cause:       ErrNoIntentMatch,
		}
	}

	p := params.Extract(utterance, in, snap.Schema)
	res := analytics.Dispatch(in, p, snap.Dataset, snap.Schema, r.cfg.Engine)
	r.log.Debug("resolved locally", "category", in.Category, "score", in.Score, "params", p.Describe(), "failed", res.Failed())
	resp := Assemble(res, in, chart.Normalize(res))
	if res.Failed() {
		metrics.EngineFailures.WithLabelValues(string(in.Category)).Inc()
		resp.Suggestions = Suggestions(snap.Schema)
	}
	return resp
}

// history converts the last n turns into alternating user/assistant
// messages.
func history(turns []session.Turn, n int) []ai.Message {
	if len(turns) > n {
		turns = turns[len(turns)-n:]
	}
	out := make([]ai.Message, 0, 2*len(turns))
	for _, t := range turns {
		out = append(out,
			ai.Message{Role: "user", Content: t.Utterance},
			ai.Message{Role: "assistant", Content: t.Answer},
		)
	}
	return out
}

func fallbackReason(err error) string {
	var (
		auth    *ai.AuthError
		key     *ai.MissingKeyError
		limit   *ai.RateLimitError
		quota   *ai.QuotaExceededError
		unreach *ai.UnreachableError
	)
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, ai.ErrMalformedReply):
		return "malformed"
	case errors.As(err, &auth), errors.As(err, &key):
		return "auth"
	case errors.As(err, &limit), errors.As(err, &quota):
		return "rate_limit"
	case errors.As(err, &unreach):
		return "unreachable"
	}
	return "error"
}

func empty() *chart.Descriptor {
	d := chart.Empty("")
	return &d
}

// Package agent answers free-form questions about the sales data by driving
// an Anthropic tool-use loop over the report passes.
package agent

import (
	"context"
	"encoding/json"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/fieldsight/internal/report"
)

// Decision is one model directive extracted from a response: either a final
// answer or a tool invocation to execute before the next turn. The explicit
// union keeps dispatch and tests free of content-block introspection.
type Decision interface {
	isDecision()
}

// Answer is the model's final text reply.
type Answer struct {
	Text string
}

// ToolInvocation asks for one report tool to run with the given arguments.
type ToolInvocation struct {
	ID   string
	Name string
	Args json.RawMessage
}

func (Answer) isDecision()         {}
func (ToolInvocation) isDecision() {}

// messageCreator is the slice of the SDK client the agent uses; tests
// substitute a scripted implementation.
type messageCreator interface {
	New(ctx context.Context, params sdk.MessageNewParams, opts ...option.RequestOption) (*sdk.Message, error)
}

const systemPrompt = `You are a sales analytics assistant for a dental supply
field team. Answer questions using the report tools; the reports already
resolve messy free-text names to canonical entities. Cite numbers from tool
output, never invent them.`

// Agent runs the question loop against an injected report engine.
type Agent struct {
	messages  messageCreator
	engine    *report.Engine
	limiter   *rate.Limiter
	model     string
	maxTokens int64
	maxTurns  int
}

// Options configures a new Agent.
type Options struct {
	APIKey    string
	Model     string
	MaxTokens int
	MaxTurns  int
	RPS       float64
}

// New builds an agent backed by the official SDK.
func New(engine *report.Engine, opts Options) *Agent {
	client := sdk.NewClient(option.WithAPIKey(opts.APIKey))
	return newAgent(&client.Messages, engine, opts)
}

func newAgent(messages messageCreator, engine *report.Engine, opts Options) *Agent {
	if opts.RPS <= 0 {
		opts.RPS = 1
	}
	if opts.MaxTurns <= 0 {
		opts.MaxTurns = 10
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = 2048
	}
	return &Agent{
		messages:  messages,
		engine:    engine,
		limiter:   rate.NewLimiter(rate.Limit(opts.RPS), 1),
		model:     opts.Model,
		maxTokens: int64(opts.MaxTokens),
		maxTurns:  opts.MaxTurns,
	}
}

// Ask runs the tool-use loop for one question and returns the final answer.
func (a *Agent) Ask(ctx context.Context, question string) (string, error) {
	session := uuid.NewString()
	log := zap.L().With(zap.String("session_id", session))
	log.Info("agent question", zap.String("question", question))

	history := []sdk.MessageParam{
		sdk.NewUserMessage(sdk.NewTextBlock(question)),
	}

	for turn := 0; turn < a.maxTurns; turn++ {
		if err := a.limiter.Wait(ctx); err != nil {
			return "", eris.Wrap(err, "agent: rate limit wait")
		}

		msg, err := a.messages.New(ctx, sdk.MessageNewParams{
			Model:     sdk.Model(a.model),
			MaxTokens: a.maxTokens,
			System:    []sdk.TextBlockParam{{Text: systemPrompt}},
			Messages:  history,
			Tools:     reportTools(),
		})
		if err != nil {
			return "", eris.Wrap(err, "agent: create message")
		}

		decisions := Decide(msg)
		invocations := invocationsOf(decisions)
		if len(invocations) == 0 {
			return answerOf(decisions), nil
		}

		history = append(history, msg.ToParam())
		results := make([]sdk.ContentBlockParamUnion, 0, len(invocations))
		for _, inv := range invocations {
			out, err := a.dispatch(ctx, inv)
			if err != nil {
				log.Warn("tool failed",
					zap.String("tool", inv.Name),
					zap.Error(err))
				results = append(results, sdk.NewToolResultBlock(inv.ID, err.Error(), true))
				continue
			}
			log.Debug("tool succeeded", zap.String("tool", inv.Name))
			results = append(results, sdk.NewToolResultBlock(inv.ID, out, false))
		}
		history = append(history, sdk.NewUserMessage(results...))
	}

	return "", eris.Errorf("agent: no answer after %d turns", a.maxTurns)
}

// Decide translates a response into the decision union. Tool invocations
// take precedence; trailing text on a tool-use turn is commentary, not an
// answer, and is dropped.
func Decide(msg *sdk.Message) []Decision {
	var out []Decision
	for _, block := range msg.Content {
		switch b := block.AsAny().(type) {
		case sdk.TextBlock:
			out = append(out, Answer{Text: b.Text})
		case sdk.ToolUseBlock:
			out = append(out, ToolInvocation{ID: b.ID, Name: b.Name, Args: b.Input})
		}
	}
	return out
}

func invocationsOf(decisions []Decision) []ToolInvocation {
	var out []ToolInvocation
	for _, d := range decisions {
		if inv, ok := d.(ToolInvocation); ok {
			out = append(out, inv)
		}
	}
	return out
}

func answerOf(decisions []Decision) string {
	var parts []string
	for _, d := range decisions {
		if a, ok := d.(Answer); ok {
			parts = append(parts, a.Text)
		}
	}
	return strings.Join(parts, "\n")
}

// Package advisor produces human-readable financial advice from a
// snapshot. Two strategies satisfy the same contract: an AI-backed one
// delegating to the Groq chat-completion API, and a deterministic
// rule-based one used as the universal fallback. Neither Analyze nor
// Chat ever fails: external-service problems degrade to the fallback
// text so the user always sees their numbers.
package advisor

import (
	"context"

	"finadvisor/internal/core"
	"finadvisor/internal/groq"
	applog "finadvisor/internal/log"
)

const (
	// ChatUnavailableMessage is returned from Chat when the AI
	// integration is not configured.
	ChatUnavailableMessage = "AI chat is currently unavailable. " +
		"Please configure the GROQ_API_KEY to enable this feature."

	// chatRetryMessage is returned from Chat when a configured call fails.
	chatRetryMessage = "I'm having trouble responding right now. " +
		"Please try again in a moment."

	analysisTemperature = 0.7
	analysisMaxTokens   = 1500
	chatTemperature     = 0.8
	chatMaxTokens       = 800
)

// Advisor holds the injected completion client. A client that reports
// !Configured() selects the rule-based strategy for every call.
type Advisor struct {
	client *groq.Client
	log    *applog.Logger
}

func New(client *groq.Client, logger *applog.Logger) *Advisor {
	return &Advisor{
		client: client,
		log:    logger.WithComponent("advisor"),
	}
}

// AIEnabled reports whether the AI-backed strategy is available.
func (a *Advisor) AIEnabled() bool {
	return a.client != nil && a.client.Configured()
}

// Analyze returns markdown advice for the snapshot. It branches on the
// explicit result of the completion call: any failure selects the
// rule-based report instead of propagating.
func (a *Advisor) Analyze(ctx context.Context, s core.Snapshot) string {
	if !a.AIEnabled() {
		return RuleBasedAnalysis(s)
	}

	text, err := a.client.ChatCompletion(ctx, analysisSystemPrompt, analysisPrompt(s),
		analysisTemperature, analysisMaxTokens)
	if err != nil {
		a.log.Warn("AI analysis failed, using rule-based fallback", "error", err)
		return RuleBasedAnalysis(s)
	}
	return text
}

// Chat answers a free-form question using the snapshot as context. With
// the integration unconfigured it returns a static unavailable message;
// on call failure it returns a static retry message.
func (a *Advisor) Chat(ctx context.Context, userMessage string, s core.Snapshot) string {
	if !a.AIEnabled() {
		return ChatUnavailableMessage
	}

	text, err := a.client.ChatCompletion(ctx, chatSystemPrompt, chatPrompt(userMessage, s),
		chatTemperature, chatMaxTokens)
	if err != nil {
		a.log.Warn("AI chat failed", "error", err)
		return chatRetryMessage
	}
	return text
}

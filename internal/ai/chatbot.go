package ai

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

const chatSystemPrompt = `You are a friendly assistant for an EV charging marketplace. You help drivers with
station information, pricing, queue and booking questions, payment issues and
eco-friendly charging choices. Be concise and practical; suggest contacting
support when you do not know something specific.`

// Assistant wraps the Gemini client for the marketplace's conversational
// helpers. A nil client switches every method to its deterministic fallback.
type Assistant struct {
	client *Client
	logger *zap.Logger
}

// NewAssistant builds the assistant.
func NewAssistant(client *Client, logger *zap.Logger) *Assistant {
	return &Assistant{client: client, logger: logger}
}

// Chat answers a support question. The second return value reports whether
// the canned fallback produced the reply.
func (a *Assistant) Chat(ctx context.Context, message string) (string, bool) {
	message = strings.TrimSpace(message)
	if message == "" {
		return "Please enter a message.", true
	}

	if a.client != nil {
		prompt := fmt.Sprintf("%s\n\nUser question: %s", chatSystemPrompt, message)
		reply, err := a.client.Generate(ctx, prompt)
		if err == nil {
			return reply, false
		}
		a.logger.Warn("chat generation failed, using fallback", zap.Error(err))
	}

	return fallbackChatReply(message), true
}

// fallbackChatReply keyword-matches the most common support topics.
func fallbackChatReply(message string) string {
	lower := strings.ToLower(message)
	switch {
	case containsAny(lower, "price", "cost", "cheap", "tariff"):
		return "Station prices are shown per kWh on each listing. Sort the station list by price to find the cheapest options near you."
	case containsAny(lower, "queue", "wait", "busy", "full"):
		return "When every charger at a station is busy you are placed in a first-come wait line. Poll the queue status endpoint to see your position; once it reaches 1 and a charger frees up you can start charging."
	case containsAny(lower, "pay", "payment", "refund", "bill"):
		return "Payments are settled when a session completes and each receipt carries a transaction token you can find in your charging history. For disputes, contact support with that token."
	case containsAny(lower, "green", "eco", "renewable"):
		return "Every station carries a green score from 0 to 10 reflecting its renewable energy mix. Filter or sort by green score to charge cleaner."
	case containsAny(lower, "cancel", "stop"):
		return "You can stop your own active session from your session history. Station owners can also complete or cancel sessions at their stations."
	default:
		return "I can help with station pricing, availability, queues, payments and green charging. Could you rephrase your question?"
	}
}

func containsAny(s string, needles ...string) bool {
	for _, needle := range needles {
		if strings.Contains(s, needle) {
			return true
		}
	}
	return false
}

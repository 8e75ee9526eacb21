package assistant

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"arthik-chat-be/pkg/llm"
)

// EmptyReplyText is returned when the provider answers with nothing.
const EmptyReplyText = "I apologize, but I couldn't generate a proper response at this time. Please try rephrasing your question."

const rateLimitedTemplate = `Hello! I'm Arthik, your AI trading assistant. I'm currently experiencing high demand, but I can still help you with general trading advice.

Regarding your question about "%s":

While I can't access real-time market data right now, here are some fundamental principles for successful trading:

📊 **Key Trading Factors:**
- **Risk Management**: Never risk more than 2-3%% of your portfolio on a single trade
- **Research**: Always analyze company fundamentals and market trends
- **Diversification**: Spread investments across different sectors and assets
- **Market Timing**: Consider market conditions and economic indicators
- **Emotional Control**: Stick to your strategy and avoid impulsive decisions

💡 **Remember**: This is educational information, not financial advice. Always consult with qualified financial professionals before making investment decisions.

Please check back later when our full AI capabilities are restored, or contact support if you need immediate assistance with your AI provider quota.`

const AuthFailureText = "I'm currently experiencing authentication issues with my AI services. Please contact support to resolve this issue with the AI provider configuration."

const TimeoutText = `Hello! I'm Arthik, your financial trading assistant. My analysis is taking longer than expected, so I stopped waiting to keep things responsive.

Please try asking again in a moment. Shorter, more specific questions usually get answered faster.

⚠️ **Important**: This is educational content only, not financial advice. Always do your own research and consider consulting with financial professionals.`

const GenericFailureText = `Hello! I'm Arthik, your financial trading assistant. I'm experiencing temporary technical difficulties, but I can still provide some general guidance.

For your question about trading, here are some essential principles:

📈 **Smart Trading Fundamentals:**
- Start with a clear strategy and stick to it
- Always use stop-loss orders to limit potential losses
- Research before you invest - understand what you're buying
- Keep emotions in check - fear and greed are a trader's worst enemies
- Stay informed about market news and economic indicators

⚠️ **Important**: This is educational content only, not financial advice. Always do your own research and consider consulting with financial professionals.

I'll be back to full functionality soon. Thank you for your patience!`

const rateLimitedPrefix = "Hello! I'm Arthik, your AI trading assistant. I'm currently experiencing high demand"

// FailureKind classifies why a provider call could not produce a reply.
type FailureKind string

const (
	FailureRateLimited FailureKind = "rate_limited"
	FailureAuth        FailureKind = "auth"
	FailureTimeout     FailureKind = "timeout"
	FailureGeneric     FailureKind = "generic"
)

func classify(err error) FailureKind {
	switch llm.StatusCode(err) {
	case http.StatusTooManyRequests:
		return FailureRateLimited
	case http.StatusUnauthorized, http.StatusForbidden:
		return FailureAuth
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return FailureTimeout
	}
	return FailureGeneric
}

// FallbackText is the deterministic reply for a failed call about question.
func FallbackText(kind FailureKind, question string) string {
	switch kind {
	case FailureRateLimited:
		return fmt.Sprintf(rateLimitedTemplate, quote(question, 50))
	case FailureAuth:
		return AuthFailureText
	case FailureTimeout:
		return TimeoutText
	default:
		return GenericFailureText
	}
}

// IsFallback reports whether text is one of the canned replies. Those are
// kept out of the conversational context.
func IsFallback(text string) bool {
	switch text {
	case EmptyReplyText, AuthFailureText, TimeoutText, GenericFailureText:
		return true
	}
	return strings.HasPrefix(text, rateLimitedPrefix)
}

func quote(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max]) + "..."
}

package assistant

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

const defaultSystemPrompt = `You are Arthik.ai, an expert AI financial trading assistant. You provide intelligent, actionable insights about:
- Stock market analysis and trends
- Trading strategies and risk management
- Portfolio optimization and diversification
- Financial news interpretation
- Technical and fundamental analysis
- Investment opportunities and recommendations

Always provide professional, accurate, and helpful financial advice. Be specific with data when possible, but always include disclaimers about market risks. Keep responses conversational but authoritative.

Important: Always include a disclaimer that past performance doesn't guarantee future results and users should do their own research.`

const defaultTitlePrompt = "Generate a short, descriptive title (max 50 characters) for a financial trading chat based on the user's first message. Focus on the main topic or question. Reply with the title only."

// Prompts are the instructions sent ahead of every conversation.
type Prompts struct {
	System string `toml:"system"`
	Title  string `toml:"title"`
}

func DefaultPrompts() Prompts {
	return Prompts{System: defaultSystemPrompt, Title: defaultTitlePrompt}
}

// LoadPrompts reads a TOML file with optional `system` and `title` keys.
// Missing keys keep their defaults. An empty path returns the defaults.
func LoadPrompts(path string) (Prompts, error) {
	prompts := DefaultPrompts()
	if path == "" {
		return prompts, nil
	}

	var fromFile Prompts
	meta, err := toml.DecodeFile(path, &fromFile)
	if err != nil {
		return prompts, fmt.Errorf("load prompts %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return prompts, fmt.Errorf("load prompts %s: unknown keys %v", path, undecoded)
	}

	if s := strings.TrimSpace(fromFile.System); s != "" {
		prompts.System = s
	}
	if s := strings.TrimSpace(fromFile.Title); s != "" {
		prompts.Title = s
	}
	return prompts, nil
}

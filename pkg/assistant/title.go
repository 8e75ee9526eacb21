package assistant

import (
	"strings"
	"unicode/utf8"

	"arthik-chat-be/internal/constant"
)

// TitleFromContent derives a session title from the first user message.
func TitleFromContent(content string) string {
	title := strings.Join(strings.Fields(content), " ")
	if title == "" {
		return constant.DefaultChatTitle
	}
	return truncateTitle(title)
}

// cleanTitle normalises a model generated title.
func cleanTitle(raw string) string {
	title := strings.TrimSpace(raw)
	if i := strings.IndexByte(title, '\n'); i >= 0 {
		title = strings.TrimSpace(title[:i])
	}
	title = strings.TrimPrefix(title, "Title:")
	title = strings.Trim(strings.TrimSpace(title), "\"'`*")
	title = strings.TrimSpace(title)
	if title == "" {
		return constant.DefaultChatTitle
	}
	return truncateTitle(title)
}

func truncateTitle(title string) string {
	if utf8.RuneCountInString(title) <= constant.MaxDerivedTitle {
		return title
	}
	runes := []rune(title)
	return strings.TrimSpace(string(runes[:constant.MaxDerivedTitle-3])) + "..."
}

package constant

const (
	ChatMessageRoleUser      = "user"
	ChatMessageRoleAssistant = "assistant"
	ChatMessageRoleSystem    = "system"

	DefaultChatTitle  = "Financial Trading Chat"
	MaxTitleLength    = 200
	MaxDerivedTitle   = 50
	SessionIdPattern  = `^[A-Za-z0-9_-]{1,128}$`
	HistoryContextMax = 10
)

const (
	OwnerScopeGlobal = ""

	AuthModeOff      = "off"
	AuthModeOptional = "optional"
	AuthModeRequired = "required"

	TitleStrategyContent = "content"
	TitleStrategyModel   = "model"
)

func IsValidRole(role string) bool {
	return role == ChatMessageRoleUser || role == ChatMessageRoleAssistant
}

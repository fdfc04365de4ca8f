package content

import "fmt"

// IDKind identifies which kind of user identifier is embedded in a mention.
type IDKind string

const (
	IDKindOpenID  IDKind = "open_id"
	IDKindUnionID IDKind = "union_id"
	IDKindUserID  IDKind = "user_id"
)

// mentionAttr returns the markup attribute used for a mention of the given kind.
// The platform resolves every kind through the user_id attribute.
func mentionAttr(kind IDKind) string {
	switch kind {
	case IDKindOpenID, IDKindUnionID, IDKindUserID:
		return "user_id"
	default:
		return "user_id"
	}
}

// MentionAll returns the fragment that notifies every member of a chat.
func MentionAll() string {
	return `<at user_id="all"></at>`
}

// MentionUser returns a fragment mentioning a single user.
func MentionUser(targetID, displayName string, kind IDKind) string {
	return fmt.Sprintf(`<at %s="%s">%s</at>`, mentionAttr(kind), targetID, displayName)
}

func Bold(text string) string {
	return "<b>" + text + "</b>"
}

func Italic(text string) string {
	return "<i>" + text + "</i>"
}

func Underline(text string) string {
	return "<u>" + text + "</u>"
}

func StrikeThrough(text string) string {
	return "<s>" + text + "</s>"
}

// Hyperlink returns a markdown-style link. Neither argument is escaped.
func Hyperlink(url, displayText string) string {
	return "[" + displayText + "](" + url + ")"
}

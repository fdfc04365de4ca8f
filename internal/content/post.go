package content

import (
	"encoding/json"
	"strings"
)

// DefaultLocale is the locale key every post is created with.
const DefaultLocale = "zh_cn"

// Style is a text decoration applied to a span. The values are the names
// the platform expects in a post's "style" list.
type Style string

const (
	StyleBold          Style = "bold"
	StyleUnderline     Style = "underline"
	StyleStrikeThrough Style = "lineThrough"
	StyleItalic        Style = "italic"
)

// ListStyles returns every supported style.
func ListStyles() []Style {
	return []Style{StyleBold, StyleUnderline, StyleStrikeThrough, StyleItalic}
}

// Span is a single element of a post line: a *TextSpan, *LinkSpan or *MentionSpan.
type Span interface {
	// Tag is the element discriminator on the wire ("text", "a" or "at").
	Tag() string
	// Fields projects the span into the element object the platform expects.
	Fields() map[string]any
	// PlainText is the span rendered without markup.
	PlainText() string

	isSpan()
}

type TextSpan struct {
	Text     string
	Styles   []Style
	Unescape bool
}

type LinkSpan struct {
	Text   string
	Href   string
	Styles []Style
}

// MentionSpan mentions a user. UserID "all" mentions everyone in the chat.
type MentionSpan struct {
	UserID string
	Styles []Style
}

func (*TextSpan) Tag() string    { return "text" }
func (*LinkSpan) Tag() string    { return "a" }
func (*MentionSpan) Tag() string { return "at" }

func (s *TextSpan) Fields() map[string]any {
	return map[string]any{
		"tag":      s.Tag(),
		"text":     s.Text,
		"style":    styleNames(s.Styles),
		"unescape": s.Unescape,
	}
}

func (s *LinkSpan) Fields() map[string]any {
	return map[string]any{
		"tag":   s.Tag(),
		"text":  s.Text,
		"href":  s.Href,
		"style": styleNames(s.Styles),
	}
}

func (s *MentionSpan) Fields() map[string]any {
	return map[string]any{
		"tag":     s.Tag(),
		"user_id": s.UserID,
		"style":   styleNames(s.Styles),
	}
}

func (s *TextSpan) PlainText() string { return s.Text }
func (s *LinkSpan) PlainText() string { return s.Text }
func (s *MentionSpan) PlainText() string {
	return "@" + s.UserID
}

func (*TextSpan) isSpan()    {}
func (*LinkSpan) isSpan()    {}
func (*MentionSpan) isSpan() {}

// styleNames never returns nil so that an absent style list still
// serializes as [].
func styleNames(styles []Style) []string {
	names := make([]string, 0, len(styles))
	for _, s := range styles {
		names = append(names, string(s))
	}
	return names
}

func copyStyles(styles []Style) []Style {
	return append(make([]Style, 0, len(styles)), styles...)
}

// Line is an ordered run of spans rendered on one row.
type Line []Span

// Body holds the title and lines of a post in a single locale.
type Body struct {
	title string
	lines []Line
}

func (b *Body) Title() string {
	return b.title
}

// SetTitle replaces the title.
func (b *Body) SetTitle(title string) {
	b.title = title
}

// Lines returns a copy of the accumulated lines.
func (b *Body) Lines() []Line {
	out := make([]Line, len(b.lines))
	for i, l := range b.lines {
		out[i] = append(Line(nil), l...)
	}
	return out
}

// MakeTextSpan builds a text span. A nil styles list is treated as empty.
func (b *Body) MakeTextSpan(text string, styles []Style, unescape bool) Span {
	return &TextSpan{Text: text, Styles: copyStyles(styles), Unescape: unescape}
}

func (b *Body) MakeLinkSpan(text, href string, styles []Style) Span {
	return &LinkSpan{Text: text, Href: href, Styles: copyStyles(styles)}
}

func (b *Body) MakeMentionSpan(targetUserID string, styles []Style) Span {
	return &MentionSpan{UserID: targetUserID, Styles: copyStyles(styles)}
}

// AppendSpanToCurrentLine adds span to the last line, starting the first
// line if the body has none.
func (b *Body) AppendSpanToCurrentLine(span Span) {
	b.AppendSpansToCurrentLine([]Span{span})
}

func (b *Body) AppendSpansToCurrentLine(spans []Span) {
	if len(b.lines) == 0 {
		b.lines = append(b.lines, Line{})
	}
	last := len(b.lines) - 1
	b.lines[last] = append(b.lines[last], spans...)
}

func (b *Body) AppendSpanAsNewLine(span Span) {
	b.lines = append(b.lines, Line{span})
}

func (b *Body) AppendSpansAsNewLine(spans []Span) {
	b.lines = append(b.lines, append(Line{}, spans...))
}

func (b *Body) serialize() map[string]any {
	content := make([][]map[string]any, 0, len(b.lines))
	for _, line := range b.lines {
		elems := make([]map[string]any, 0, len(line))
		for _, span := range line {
			elems = append(elems, span.Fields())
		}
		content = append(content, elems)
	}
	return map[string]any{
		"title":   b.title,
		"content": content,
	}
}

func (b *Body) plainText() string {
	var sb strings.Builder
	if b.title != "" {
		sb.WriteString(b.title)
		sb.WriteString("\n\n")
	}
	for i, line := range b.lines {
		for _, span := range line {
			sb.WriteString(span.PlainText())
		}
		if i < len(b.lines)-1 {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

// Post is a rich-text ("post") message. The embedded Body is the default
// locale; further locales are added with Locale. The zero value is an
// untitled post ready to use.
//
// A Post is not safe for concurrent mutation.
type Post struct {
	Body
	locales map[string]*Body
	order   []string
}

func NewPost(title string) *Post {
	return &Post{Body: Body{title: title}}
}

// Locale returns the body for key, creating an empty one on first use.
func (p *Post) Locale(key string) *Body {
	if key == DefaultLocale {
		return &p.Body
	}
	if b, ok := p.locales[key]; ok {
		return b
	}
	if p.locales == nil {
		p.locales = make(map[string]*Body)
	}
	b := &Body{}
	p.locales[key] = b
	p.order = append(p.order, key)
	return b
}

// Locales lists locale keys in the order they were added, starting with
// DefaultLocale.
func (p *Post) Locales() []string {
	return append([]string{DefaultLocale}, p.order...)
}

// Serialize renders the post into the document shape the message API takes:
//
//	{"zh_cn": {"title": "...", "content": [[{"tag": "text", ...}, ...], ...]}}
func (p *Post) Serialize() map[string]any {
	out := make(map[string]any, len(p.order)+1)
	out[DefaultLocale] = p.Body.serialize()
	for _, key := range p.order {
		out[key] = p.locales[key].serialize()
	}
	return out
}

func (p *Post) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.Serialize())
}

// PlainText renders the default locale as plain text.
func (p *Post) PlainText() string {
	return p.Body.plainText()
}

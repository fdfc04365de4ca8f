package content

import "regexp"

// linePattern matches the inline constructs ParseLine understands, in
// priority order:
//
//	1: **bold**
//	2: ~~strike~~
//	3: __underline__
//	4: *italic*
//	5,6: [text](url)
//	7: <at user_id="id"></at> (display text is ignored)
var linePattern = regexp.MustCompile(
	`\*\*(.+?)\*\*` +
		`|~~(.+?)~~` +
		`|__(.+?)__` +
		`|\*(.+?)\*` +
		`|\[(.+?)\]\((.+?)\)` +
		`|<at user_id="([^"]+)">[^<]*</at>`,
)

// ParseLine converts a line of lightweight markup into spans. Text outside
// any construct becomes an unstyled text span.
func ParseLine(line string) []Span {
	var spans []Span
	remaining := line
	for remaining != "" {
		loc := linePattern.FindStringSubmatchIndex(remaining)
		if loc == nil {
			spans = append(spans, &TextSpan{Text: remaining, Styles: []Style{}})
			break
		}
		if loc[0] > 0 {
			spans = append(spans, &TextSpan{Text: remaining[:loc[0]], Styles: []Style{}})
		}

		group := func(n int) string {
			if loc[2*n] < 0 {
				return ""
			}
			return remaining[loc[2*n]:loc[2*n+1]]
		}

		switch {
		case group(1) != "":
			spans = append(spans, &TextSpan{Text: group(1), Styles: []Style{StyleBold}})
		case group(2) != "":
			spans = append(spans, &TextSpan{Text: group(2), Styles: []Style{StyleStrikeThrough}})
		case group(3) != "":
			spans = append(spans, &TextSpan{Text: group(3), Styles: []Style{StyleUnderline}})
		case group(4) != "":
			spans = append(spans, &TextSpan{Text: group(4), Styles: []Style{StyleItalic}})
		case group(5) != "":
			spans = append(spans, &LinkSpan{Text: group(5), Href: group(6), Styles: []Style{}})
		case group(7) != "":
			spans = append(spans, &MentionSpan{UserID: group(7), Styles: []Style{}})
		}

		remaining = remaining[loc[1]:]
	}
	return spans
}

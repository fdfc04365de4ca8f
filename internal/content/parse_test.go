package content

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLine(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []Span
	}{
		{
			name: "plain",
			in:   "hello",
			want: []Span{&TextSpan{Text: "hello", Styles: []Style{}}},
		},
		{
			name: "empty",
			in:   "",
			want: nil,
		},
		{
			name: "bold and link",
			in:   "see **this** [doc](https://x.y/z) now",
			want: []Span{
				&TextSpan{Text: "see ", Styles: []Style{}},
				&TextSpan{Text: "this", Styles: []Style{StyleBold}},
				&TextSpan{Text: " ", Styles: []Style{}},
				&LinkSpan{Text: "doc", Href: "https://x.y/z", Styles: []Style{}},
				&TextSpan{Text: " now", Styles: []Style{}},
			},
		},
		{
			name: "styles",
			in:   "*i*~~s~~__u__",
			want: []Span{
				&TextSpan{Text: "i", Styles: []Style{StyleItalic}},
				&TextSpan{Text: "s", Styles: []Style{StyleStrikeThrough}},
				&TextSpan{Text: "u", Styles: []Style{StyleUnderline}},
			},
		},
		{
			name: "mention",
			in:   `hi <at user_id="all"></at>`,
			want: []Span{
				&TextSpan{Text: "hi ", Styles: []Style{}},
				&MentionSpan{UserID: "all", Styles: []Style{}},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLine(tt.in))
		})
	}
}

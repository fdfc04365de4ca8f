package content

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMentionAll(t *testing.T) {
	assert.Equal(t, `<at user_id="all"></at>`, MentionAll())
}

func TestMentionUserIgnoresKind(t *testing.T) {
	for _, kind := range []IDKind{IDKindOpenID, IDKindUnionID, IDKindUserID, IDKind("email")} {
		got := MentionUser("ou_123", "Alice", kind)
		assert.Equal(t, `<at user_id="ou_123">Alice</at>`, got, "kind %s", kind)
	}
}

func TestInlineStyles(t *testing.T) {
	tests := []struct {
		name string
		fn   func(string) string
		want string
	}{
		{"bold", Bold, "<b>hi</b>"},
		{"italic", Italic, "<i>hi</i>"},
		{"underline", Underline, "<u>hi</u>"},
		{"strike", StrikeThrough, "<s>hi</s>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.fn("hi"))
		})
	}
}

func TestInlineStylesDoNotEscape(t *testing.T) {
	assert.Equal(t, "<b><i>x</i> & y</b>", Bold(Italic("x")+" & y"))
}

func TestHyperlink(t *testing.T) {
	assert.Equal(t, "[label](http://x)", Hyperlink("http://x", "label"))
	assert.Equal(t, "[](http://x)", Hyperlink("http://x", ""))
}

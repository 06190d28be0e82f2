package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitDelimited(t *testing.T) {
	tests := []struct {
		name string
		line string
		want []string
	}{
		{"plain", "a,b,c", []string{"a", "b", "c"}},
		{"trims fields", " a , b ", []string{"a", "b"}},
		{"quoted delimiter", `a,"b,c",d`, []string{"a", "b,c", "d"}},
		{"doubled quotes collapse", `"say ""hi""",x`, []string{`say "hi"`, "x"}},
		{"trailing delimiter", "a,", []string{"a", ""}},
		{"empty line", "", []string{""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitDelimited(tt.line, DefaultDelimiter))
		})
	}
}

func TestLogicalLines(t *testing.T) {
	t.Run("rejoins quoted newlines", func(t *testing.T) {
		text := "h1,h2\r\n1,\"line one\nline two\"\r\n2,x"

		lines := LogicalLines(text)

		assert.Equal(t, []string{"h1,h2", "1,\"line one\nline two\"", "2,x"}, lines)
	})

	t.Run("strips byte order mark", func(t *testing.T) {
		lines := LogicalLines("\uFEFFReference,Date\rR1,2024-01-01")

		assert.Equal(t, []string{"Reference,Date", "R1,2024-01-01"}, lines)
	})

	t.Run("unterminated quote keeps the rest", func(t *testing.T) {
		lines := LogicalLines("a\n\"open\nrest")

		assert.Equal(t, []string{"a", "\"open\nrest"}, lines)
	})
}

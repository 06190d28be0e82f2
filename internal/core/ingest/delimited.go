package ingest

import "strings"

const (
	// DefaultDelimiter separates fields in exported CSV files.
	DefaultDelimiter = ','

	quoteChar     = '"'
	byteOrderMark = "\uFEFF"
)

// SplitDelimited splits one logical line into fields. Delimiters inside a
// quoted section are kept. A field wrapped in quotes loses the wrapping and
// has doubled quotes collapsed; every field is then trimmed.
func SplitDelimited(line string, delim byte) []string {
	fields := make([]string, 0, strings.Count(line, string(delim))+1)
	start := 0
	inQuotes := false
	for i := 0; i < len(line); i++ {
		switch line[i] {
		case quoteChar:
			inQuotes = !inQuotes
		case delim:
			if inQuotes {
				continue
			}
			fields = append(fields, unquoteField(line[start:i]))
			start = i + 1
		}
	}
	return append(fields, unquoteField(line[start:]))
}

func unquoteField(field string) string {
	if len(field) >= 2 && field[0] == quoteChar && field[len(field)-1] == quoteChar {
		field = strings.ReplaceAll(field[1:len(field)-1], `""`, `"`)
	}
	return strings.TrimSpace(field)
}

// normalizeText strips a leading byte-order mark and folds CRLF and CR
// line endings into LF.
func normalizeText(text string) string {
	text = strings.TrimPrefix(text, byteOrderMark)
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.ReplaceAll(text, "\r", "\n")
}

// LogicalLines splits raw text into records, re-joining physical lines that
// were broken inside a quoted field. A line with an odd number of quotes
// opens a record that runs until the next line with an odd count closes it;
// the embedded newlines are preserved.
func LogicalLines(text string) []string {
	physical := strings.Split(normalizeText(text), "\n")
	lines := make([]string, 0, len(physical))

	var current strings.Builder
	open := false
	for _, line := range physical {
		odd := strings.Count(line, string(quoteChar))%2 == 1
		if !open {
			if odd {
				open = true
				current.Reset()
				current.WriteString(line)
				continue
			}
			lines = append(lines, line)
			continue
		}
		current.WriteByte('\n')
		current.WriteString(line)
		if odd {
			open = false
			lines = append(lines, current.String())
			current.Reset()
		}
	}
	if current.Len() > 0 {
		lines = append(lines, current.String())
	}
	return lines
}

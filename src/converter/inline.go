package converter

import (
	"strings"
	"unicode"

	"github.com/sawantshivaji1997/notionsync/src/model"
)

// RenderRichText turns styled spans into inline Markdown.
func RenderRichText(spans []model.RichText) string {
	var sb strings.Builder
	lineStart := true
	for _, span := range spans {
		rendered := renderSpan(span, lineStart)
		sb.WriteString(rendered)
		if rendered != "" {
			lineStart = strings.HasSuffix(strings.TrimRight(rendered, " \t"), "\n")
		}
	}
	return sb.String()
}

// renderSpan renders one span. lineStart tells whether the span begins a
// line of the block.
func renderSpan(span model.RichText, lineStart bool) string {
	content := span.Content()
	if content == "" {
		return ""
	}

	if span.Type == "equation" {
		expr := content
		if span.Equation != nil && span.Equation.Expression != "" {
			expr = span.Equation.Expression
		}
		return "$" + strings.TrimSpace(expr) + "$"
	}

	ann := model.Annotations{}
	if span.Annotations != nil {
		ann = *span.Annotations
	}

	// Emphasis markers must hug the text, so surrounding spaces stay outside
	lead, core, trail := splitSpace(content)
	if core == "" {
		return content
	}

	text := escapeMarkdown(core, lineStart || strings.Contains(lead, "\n"))
	if ann.Code {
		text = codeSpan(core)
	}
	if ann.Bold {
		text = "**" + text + "**"
	}
	if ann.Italic {
		text = "*" + text + "*"
	}
	if ann.Strikethrough {
		text = "~~" + text + "~~"
	}
	if ann.Underline {
		text = "<u>" + text + "</u>"
	}
	if url := span.LinkURL(); url != "" {
		text = "[" + text + "](" + linkTarget(url) + ")"
	}

	return lead + text + trail
}

func splitSpace(s string) (string, string, string) {
	core := strings.TrimLeftFunc(s, unicode.IsSpace)
	lead := s[:len(s)-len(core)]
	trimmed := strings.TrimRightFunc(core, unicode.IsSpace)
	trail := core[len(trimmed):]
	return lead, trimmed, trail
}

func codeSpan(s string) string {
	fence := "`"
	for strings.Contains(s, fence) {
		fence += "`"
	}
	if fence != "`" || strings.HasPrefix(s, "`") || strings.HasSuffix(s, "`") {
		return fence + " " + s + " " + fence
	}
	return fence + s + fence
}

func linkTarget(url string) string {
	if strings.ContainsAny(url, " ()<>") {
		return "<" + strings.NewReplacer("<", "%3C", ">", "%3E").Replace(url) + ">"
	}
	return url
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// escapeMarkdown escapes characters that would otherwise start inline
// formatting, and block markers at the start of every line but the first.
// The first line is treated the same when lineStart is set. Underscores
// inside words are left alone.
func escapeMarkdown(s string, lineStart bool) string {
	runes := []rune(s)
	var sb strings.Builder
	for i, r := range runes {
		switch r {
		case '\\', '*', '`', '[', ']':
			sb.WriteRune('\\')
		case '_':
			inWord := i > 0 && i < len(runes)-1 &&
				isWordRune(runes[i-1]) && isWordRune(runes[i+1])
			if !inWord {
				sb.WriteRune('\\')
			}
		}
		sb.WriteRune(r)
	}

	lines := strings.Split(sb.String(), "\n")
	for i := range lines {
		if i > 0 || lineStart {
			lines[i] = escapeBlockMarker(lines[i])
		}
	}
	return strings.Join(lines, "\n")
}

func isSpaceOrEnd(s string, i int) bool {
	return i >= len(s) || s[i] == ' ' || s[i] == '\t'
}

// escapeBlockMarker escapes the leading character of a line that would open
// a heading, quote, list, fence, setext underline or HTML block.
func escapeBlockMarker(line string) string {
	body := strings.TrimLeft(line, " \t")
	if body == "" {
		return line
	}
	indent := line[:len(line)-len(body)]

	switch body[0] {
	case '#', '>', '<':
		return indent + "\\" + body
	case '-', '+', '=', '~':
		if isSpaceOrEnd(body, 1) || body[1] == body[0] {
			return indent + "\\" + body
		}
		return line
	}

	digits := len(body) - len(strings.TrimLeftFunc(body, func(r rune) bool {
		return r >= '0' && r <= '9'
	}))
	if digits == 0 || digits > 9 || digits == len(body) {
		return line
	}
	if (body[digits] == '.' || body[digits] == ')') && isSpaceOrEnd(body, digits+1) {
		return indent + body[:digits] + "\\" + body[digits:]
	}
	return line
}

// escapeCell makes inline Markdown safe inside a pipe table cell.
func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\n", "<br>")
}

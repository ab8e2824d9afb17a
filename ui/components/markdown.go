package components

import (
	"regexp"
	"strings"

	"github.com/Rorical/RoriAgent/ui/styles"
)

var (
	orderedItemRe = regexp.MustCompile(`^(\d+)\.\s+(.*)`)
	inlineCodeRe  = regexp.MustCompile("``[^`]*``|`[^`]*`")
	linkRe        = regexp.MustCompile(`\[([^\]]+)\]\(([^)]+)\)`)
	boldRe        = regexp.MustCompile(`\*\*([^*]+)\*\*`)
	italicScoreRe = regexp.MustCompile(`\b_([^_]+)_\b`)
	italicStarRe  = regexp.MustCompile(`(^|[^*])\*([^*\s][^*]*)\*`)
)

// RenderMarkdown styles the subset of markdown models usually produce:
// fenced code, headings, lists and inline emphasis.
func RenderMarkdown(text string) string {
	var out strings.Builder
	inCode := false

	for _, line := range strings.Split(strings.TrimSpace(text), "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			inCode = !inCode
			continue
		}
		if inCode {
			out.WriteString(styles.CodeBlockStyle().Render(line) + "\n")
			continue
		}

		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, "#"):
			title := strings.TrimSpace(strings.TrimLeft(trimmed, "#"))
			out.WriteString(styles.TitleStyle().Render(renderInline(title)) + "\n")
		case strings.HasPrefix(trimmed, "- "), strings.HasPrefix(trimmed, "* "):
			out.WriteString(styles.ListStyle().Render("• "+renderInline(trimmed[2:])) + "\n")
		case orderedItemRe.MatchString(trimmed):
			m := orderedItemRe.FindStringSubmatch(trimmed)
			out.WriteString(styles.ListStyle().Render(m[1]+". "+renderInline(m[2])) + "\n")
		default:
			out.WriteString(renderInline(line) + "\n")
		}
	}
	return strings.TrimSuffix(out.String(), "\n")
}

// renderInline handles code spans first so their contents stay literal.
func renderInline(line string) string {
	var spans []string
	line = inlineCodeRe.ReplaceAllStringFunc(line, func(match string) string {
		spans = append(spans, styles.CodeBlockStyle().Render(strings.Trim(match, "`")))
		return "\x00"
	})

	line = linkRe.ReplaceAllStringFunc(line, func(match string) string {
		m := linkRe.FindStringSubmatch(match)
		return styles.LinkStyle().Render(m[1]) + " (" + m[2] + ")"
	})
	line = boldRe.ReplaceAllStringFunc(line, func(match string) string {
		return styles.BoldStyle().Render(boldRe.FindStringSubmatch(match)[1])
	})
	line = italicScoreRe.ReplaceAllStringFunc(line, func(match string) string {
		return styles.ItalicStyle().Render(strings.Trim(match, "_"))
	})
	line = italicStarRe.ReplaceAllStringFunc(line, func(match string) string {
		m := italicStarRe.FindStringSubmatch(match)
		return m[1] + styles.ItalicStyle().Render(m[2])
	})

	for _, span := range spans {
		line = strings.Replace(line, "\x00", span, 1)
	}
	return line
}

package report

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/russross/blackfriday/v2"
)

// Markdown renders inv as a markdown document with a summary table and the
// output in a code block.
func Markdown(inv Invocation) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", codeSpan(inv.Command))
	b.WriteString("| Field | Value |\n|---|---|\n")
	fmt.Fprintf(&b, "| ID | %s |\n", codeSpan(inv.ID))
	fmt.Fprintf(&b, "| Start | %s |\n", inv.Start.Format(time.RFC3339Nano))
	fmt.Fprintf(&b, "| End | %s |\n", inv.End.Format(time.RFC3339Nano))
	fmt.Fprintf(&b, "| Duration | %s |\n", inv.Duration())
	fmt.Fprintf(&b, "| Status | %s |\n", statusText(inv))
	b.WriteString("\n## Output\n\n")

	if !inv.Captured {
		b.WriteString("Lines were not captured.\n")
		return b.String()
	}
	if len(inv.Lines) == 0 {
		b.WriteString("No output.\n")
		return b.String()
	}

	var body strings.Builder
	for _, l := range inv.Lines {
		fmt.Fprintf(&body, "[%s] %s\n", l.PrintedTo, l.Content)
	}
	fence := strings.Repeat("`", max(3, longestRun(body.String(), '`')+1))
	fmt.Fprintf(&b, "%stext\n%s%s\n", fence, body.String(), fence)
	return b.String()
}

// HTMLDocument renders inv as a standalone HTML page
func HTMLDocument(inv Invocation) string {
	title := html.EscapeString(inv.Command)
	return "<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n<title>" + title +
		"</title>\n</head>\n<body>\n" + RenderToHTML(Markdown(inv)) + "</body>\n</html>\n"
}

// RenderToHTML converts markdown text to sanitized HTML.
// It uses blackfriday for markdown parsing and bluemonday for HTML sanitization,
// so output of the process can never inject markup into the page.
func RenderToHTML(markdown string) string {
	unsafeHTML := blackfriday.Run(
		[]byte(markdown),
		blackfriday.WithExtensions(
			blackfriday.CommonExtensions|
				blackfriday.AutoHeadingIDs,
		),
	)

	// UGCPolicy allows user-generated content with safe HTML tags
	policy := bluemonday.UGCPolicy()
	policy.AllowAttrs("class").Matching(bluemonday.SpaceSeparatedTokens).OnElements("code", "pre")

	return string(policy.SanitizeBytes(unsafeHTML))
}

func codeSpan(s string) string {
	if s == "" {
		return ""
	}
	ticks := strings.Repeat("`", longestRun(s, '`')+1)
	return ticks + " " + strings.ReplaceAll(s, "|", "\\|") + " " + ticks
}

func longestRun(s string, c byte) int {
	longest, current := 0, 0
	for i := 0; i < len(s); i++ {
		if s[i] == c {
			current++
			longest = max(longest, current)
		} else {
			current = 0
		}
	}
	return longest
}

package transformers

import (
	"regexp"
	"strings"
)

var (
	mdCodeBlock    = regexp.MustCompile("(?s)```[^\\n]*\\n(.*?)```")
	mdInlineCode   = regexp.MustCompile("`([^`]+)`")
	mdImages       = regexp.MustCompile(`!\[([^\]]*)\]\([^)]+\)`)
	mdLinks        = regexp.MustCompile(`\[([^\]]+)\]\([^)]+\)`)
	mdHeadings     = regexp.MustCompile(`(?m)^#{1,6}\s+`)
	mdEmphasis     = regexp.MustCompile(`(\*\*|__|\*|_)([^*_\n]+)(\*\*|__|\*|_)`)
	mdStrike       = regexp.MustCompile(`~~([^~]+)~~`)
	mdBlockquote   = regexp.MustCompile(`(?m)^>\s?`)
	mdRule         = regexp.MustCompile(`(?m)^\s*[-*_]{3,}\s*$`)
	mdListMarker   = regexp.MustCompile(`(?m)^\s*[-*+]\s+`)
	mdNumberedList = regexp.MustCompile(`(?m)^\s*\d+\.\s+`)
	mdTableRule    = regexp.MustCompile(`(?m)^\|?\s*:?-{3,}.*$`)
	mdMultiNewline = regexp.MustCompile(`\n{3,}`)
)

// StripMarkdown converts markdown into plain text.
// Code keeps its content, links and images keep their text, markers are removed.
func StripMarkdown(content string) string {
	content = strings.ReplaceAll(content, "\r\n", "\n")

	content = mdCodeBlock.ReplaceAllString(content, "$1")
	content = mdInlineCode.ReplaceAllString(content, "$1")
	content = mdImages.ReplaceAllString(content, "$1")
	content = mdLinks.ReplaceAllString(content, "$1")
	content = mdHeadings.ReplaceAllString(content, "")
	content = mdStrike.ReplaceAllString(content, "$1")

	// Nested emphasis needs more than one pass.
	for i := 0; i < 2; i++ {
		content = mdEmphasis.ReplaceAllString(content, "$2")
	}

	content = mdBlockquote.ReplaceAllString(content, "")
	content = mdRule.ReplaceAllString(content, "")
	content = mdTableRule.ReplaceAllString(content, "")
	content = mdListMarker.ReplaceAllString(content, "")
	content = mdNumberedList.ReplaceAllString(content, "")
	content = mdMultiNewline.ReplaceAllString(content, "\n\n")

	return strings.TrimSpace(content)
}

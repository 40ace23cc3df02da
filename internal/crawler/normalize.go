package crawler

import (
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"github.com/mitchellh/go-wordwrap"
)

// DefaultWrapWidth is the line width of normalized descriptions
const DefaultWrapWidth = 88

// Normalize converts an HTML job description into readable plain text.
//
// Only direct children of the body are visited: p and div become one line
// followed by a blank line, ul becomes one "- " line per direct li followed
// by a blank line, everything else is dropped. Each blank-line separated
// block is then word-wrapped to wrapWidth without joining existing lines.
func Normalize(htmlText string, wrapWidth int) string {
	if wrapWidth <= 0 {
		wrapWidth = DefaultWrapWidth
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlText))
	if err != nil {
		return ""
	}

	var lines []string
	doc.Find("body").Contents().Each(func(_ int, s *goquery.Selection) {
		switch goquery.NodeName(s) {
		case "p", "div":
			if text := visibleText(s); text != "" {
				lines = append(lines, text, "")
			}
		case "ul":
			s.ChildrenFiltered("li").Each(func(_ int, li *goquery.Selection) {
				lines = append(lines, "- "+visibleText(li))
			})
			lines = append(lines, "")
		}
	})

	text := strings.Join(lines, "\n")
	text = strings.ReplaceAll(text, "\u00a0", " ")

	lines = strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRightFunc(line, unicode.IsSpace)
	}
	text = strings.Join(lines, "\n")

	blocks := strings.Split(text, "\n\n")
	for i, block := range blocks {
		blocks[i] = wrapBlock(block, wrapWidth)
	}

	return strings.TrimSpace(strings.Join(blocks, "\n\n"))
}

// wrapBlock wraps block to width runes. Existing line breaks are kept and
// words longer than width stay whole on their own line.
func wrapBlock(block string, width int) string {
	if width == 1 {
		// WrapString only breaks before words shorter than the limit
		lines := strings.Split(block, "\n")
		for i, line := range lines {
			lines[i] = strings.Join(strings.Fields(line), "\n")
		}
		return strings.Join(lines, "\n")
	}
	return wordwrap.WrapString(block, uint(width))
}

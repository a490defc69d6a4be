package loader

import (
	"html"
	"path"
	"regexp"
	"strings"
)

var (
	titleTag     = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)
	scriptTag    = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	styleTag     = regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`)
	noscriptTag  = regexp.MustCompile(`(?is)<noscript[^>]*>.*?</noscript>`)
	headTag      = regexp.MustCompile(`(?is)<head[^>]*>.*?</head>`)
	svgTag       = regexp.MustCompile(`(?is)<svg[^>]*>.*?</svg>`)
	htmlComment  = regexp.MustCompile(`(?s)<!--.*?-->`)
	closingBlock = regexp.MustCompile(`(?i)</(p|div|br|hr|h[1-6]|li|tr|blockquote|pre|table|section|article)>`)
	openingBlock = regexp.MustCompile(`(?i)<(p|div|h[1-6]|li|tr|blockquote|pre|table|section|article)[^>]*>`)
	brTag        = regexp.MustCompile(`(?i)<br\s*/?>`)
	hrTag        = regexp.MustCompile(`(?i)<hr\s*/?>`)
	anyTag       = regexp.MustCompile(`<[^>]+>`)
	runSpaces    = regexp.MustCompile(`[ \t]+`)
	runNewlines  = regexp.MustCompile(`\n{3,}`)
)

// ExtractTitle returns the <title> text, falling back to the last URL path
// segment with separators turned into spaces.
func ExtractTitle(content, url string) string {
	if m := titleTag.FindStringSubmatch(content); len(m) > 1 {
		if title := strings.TrimSpace(html.UnescapeString(m[1])); title != "" {
			return title
		}
	}

	segment := path.Base(strings.TrimRight(url, "/"))
	if i := strings.IndexAny(segment, "?#"); i >= 0 {
		segment = segment[:i]
	}
	segment = strings.TrimSuffix(segment, path.Ext(segment))
	segment = strings.ReplaceAll(segment, "_", " ")
	segment = strings.ReplaceAll(segment, "-", " ")
	return segment
}

// StripHTML reduces an HTML page to readable text. Script, style, head and
// svg subtrees are dropped, block boundaries become newlines, entities are
// decoded, and whitespace is normalised line by line.
func StripHTML(content string) string {
	content = scriptTag.ReplaceAllString(content, "")
	content = styleTag.ReplaceAllString(content, "")
	content = noscriptTag.ReplaceAllString(content, "")
	content = headTag.ReplaceAllString(content, "")
	content = svgTag.ReplaceAllString(content, "")
	content = htmlComment.ReplaceAllString(content, "")

	content = openingBlock.ReplaceAllString(content, "\n")
	content = closingBlock.ReplaceAllString(content, "\n")
	content = brTag.ReplaceAllString(content, "\n")
	content = hrTag.ReplaceAllString(content, "\n")

	content = anyTag.ReplaceAllString(content, "")
	content = html.UnescapeString(content)

	content = runSpaces.ReplaceAllString(content, " ")
	content = runNewlines.ReplaceAllString(content, "\n\n")

	lines := strings.Split(content, "\n")
	kept := lines[:0]
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}

package document

import (
	"path/filepath"
	"regexp"
	"strings"
)

var (
	wordSeparators  = regexp.MustCompile(`[-_]+`)
	anchorDisallow  = regexp.MustCompile(`[^a-z0-9\s-]`)
	anchorWhitespace = regexp.MustCompile(`\s+`)
)

// SlugTitle derives a human title from a filename using the slug rule:
// strip the extension, replace '-'/'_' with spaces, title-case each word.
// A file named "index" (any case) uses the parent directory's segment
// instead, or rootTitle when it sits at the tree root.
func SlugTitle(segments []string, rootTitle, indexFileName string) string {
	if len(segments) == 0 {
		return rootTitle
	}

	base := segments[len(segments)-1]
	base = strings.TrimSuffix(base, filepath.Ext(base))

	if strings.EqualFold(base, strings.TrimSuffix(indexFileName, filepath.Ext(indexFileName))) {
		if len(segments) == 1 {
			return rootTitle
		}
		return titleCaseSlug(segments[len(segments)-2])
	}
	return titleCaseSlug(base)
}

func titleCaseSlug(segment string) string {
	spaced := wordSeparators.ReplaceAllString(segment, " ")
	words := strings.Fields(spaced)
	for i, w := range words {
		words[i] = titleCaseWord(w)
	}
	return strings.Join(words, " ")
}

func titleCaseWord(w string) string {
	if w == "" {
		return w
	}
	r := []rune(w)
	r[0] = []rune(strings.ToUpper(string(r[0])))[0]
	return string(r[0]) + strings.ToLower(string(r[1:]))
}

// HeadingAnchor computes the anchor fragment for a heading's text: lowercase,
// drop characters outside [a-z0-9\s-], collapse whitespace runs to a single
// '-', trim leading/trailing '-'.
func HeadingAnchor(text string) string {
	lower := strings.ToLower(text)
	stripped := anchorDisallow.ReplaceAllString(lower, "")
	collapsed := anchorWhitespace.ReplaceAllString(stripped, "-")
	return strings.Trim(collapsed, "-")
}

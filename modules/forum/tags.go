package forum

import (
	"strings"
	"unicode/utf8"

	"github.com/example/forum28/domain/apperr"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

const (
	// MaxTagsPerPost caps the distinct tags attached to one post.
	MaxTagsPerPost = 10
	// MaxTagLength is the longest tag kept, in runes.
	MaxTagLength = 30
)

// ErrTooManyTags is returned when a post names more than MaxTagsPerPost tags.
var ErrTooManyTags = apperr.New(apperr.KindValidation, "A post can have at most 10 tags.")

// NormalizeTag folds raw into its canonical form: NFC, lower case, inner
// whitespace collapsed, truncated to MaxTagLength runes. The result may be
// empty.
func NormalizeTag(raw string) string {
	// cases.Caser keeps state and is not safe to share.
	lower := cases.Lower(language.Und)
	s := lower.String(norm.NFC.String(raw))
	s = strings.Join(strings.Fields(s), " ")

	if utf8.RuneCountInString(s) > MaxTagLength {
		s = strings.TrimSpace(string([]rune(s)[:MaxTagLength]))
	}
	return s
}

// NormalizeTags normalizes and deduplicates raw, keeping first-seen order and
// dropping empties.
func NormalizeTags(raw []string) ([]string, error) {
	seen := make(map[string]struct{}, len(raw))
	tags := make([]string, 0, len(raw))
	for _, r := range raw {
		tag := NormalizeTag(r)
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		tags = append(tags, tag)
	}

	if len(tags) > MaxTagsPerPost {
		return nil, ErrTooManyTags
	}
	return tags, nil
}

// Package moderation censors blacklisted words in message text before it is
// persisted and broadcast.
package moderation

import (
	"unicode"

	goahocorasick "github.com/anknown/ahocorasick"
)

// Moderator matches a blacklist against message text with an Aho-Corasick
// automaton built once at startup. Matching runs on a normalized view of the
// text (lowercased, separators stripped) so "id.iot" still hits, while the
// replacement is applied to the original runes to preserve spacing.
type Moderator struct {
	matcher     *goahocorasick.Machine
	replacement rune
}

type textMapping struct {
	normalized []rune
	origIdx    []int
}

// NewModerator builds the automaton from the given word list. The list must
// not be empty.
func NewModerator(words []string, replacement rune) (*Moderator, error) {
	patterns := make([][]rune, len(words))
	for i, w := range words {
		patterns[i] = normalizeRunes([]rune(w))
	}

	m := new(goahocorasick.Machine)
	if err := m.Build(patterns); err != nil {
		return nil, err
	}
	return &Moderator{matcher: m, replacement: replacement}, nil
}

// Censor replaces every blacklisted span with the replacement rune and
// returns the censored text plus the matched words.
func (m *Moderator) Censor(original string) (string, []string) {
	mapping := m.normalize(original)
	if len(mapping.normalized) == 0 {
		return original, nil
	}

	spans := m.matcher.MultiPatternSearch(mapping.normalized, false)
	if len(spans) == 0 {
		return original, nil
	}

	origRunes := []rune(original)
	var hits []string
	for _, span := range spans {
		start := span.Pos
		end := start + len(span.Word)
		if start < 0 || end > len(mapping.origIdx) {
			continue
		}
		hits = append(hits, string(span.Word))

		origStart := mapping.origIdx[start]
		origEnd := mapping.origIdx[end-1] + 1
		for i := origStart; i < origEnd; i++ {
			origRunes[i] = m.replacement
		}
	}
	return string(origRunes), hits
}

// normalize lowercases the text and drops punctuation, keeping a map back to
// the original rune positions so censoring lands on the right spans.
func (m *Moderator) normalize(input string) textMapping {
	origRunes := []rune(input)
	norm := make([]rune, 0, len(origRunes))
	origIdx := make([]int, 0, len(origRunes))

	for i, r := range origRunes {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			norm = append(norm, unicode.ToLower(r))
			origIdx = append(origIdx, i)
		}
	}
	return textMapping{normalized: norm, origIdx: origIdx}
}

func normalizeRunes(runes []rune) []rune {
	norm := make([]rune, 0, len(runes))
	for _, r := range runes {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			norm = append(norm, unicode.ToLower(r))
		}
	}
	return norm
}

package moderation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestModerator(t *testing.T) *Moderator {
	t.Helper()
	m, err := NewModerator([]string{"idiot", "moron"}, '*')
	require.NoError(t, err)
	return m
}

func TestModerator_Clean_Text_Untouched(t *testing.T) {
	req := require.New(t)
	m := newTestModerator(t)

	out, hits := m.Censor("hello everyone, nice day")

	req.Equal("hello everyone, nice day", out)
	req.Empty(hits)
}

func TestModerator_Censors_Blacklisted_Word(t *testing.T) {
	req := require.New(t)
	m := newTestModerator(t)

	out, hits := m.Censor("you are an idiot sometimes")

	req.Equal("you are an ***** sometimes", out)
	req.Len(hits, 1)
}

func TestModerator_Is_Case_Insensitive(t *testing.T) {
	req := require.New(t)
	m := newTestModerator(t)

	out, hits := m.Censor("IDIOT")

	req.Equal("*****", out)
	req.Len(hits, 1)
}

func TestModerator_Catches_Punctuation_Evasion(t *testing.T) {
	req := require.New(t)
	m := newTestModerator(t)

	out, hits := m.Censor("id.iot")

	req.Len(hits, 1)
	req.NotContains(strings.ToLower(out), "id.iot")
}

func TestModerator_Multiple_Hits(t *testing.T) {
	req := require.New(t)
	m := newTestModerator(t)

	_, hits := m.Censor("idiot and moron")

	req.Len(hits, 2)
}

func TestLoadDefaultWords(t *testing.T) {
	req := require.New(t)

	words, err := LoadDefaultWords()

	req.NoError(err)
	req.NotEmpty(words.Words)
	req.NotEmpty(words.Languages)
}

package moderation

import (
	"log/slog"
	"testing"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

func newTestModerator(t *testing.T, words ...string) *Moderator {
	t.Helper()
	mod, err := NewModerator(words, '#', logs.GetLoggerFromLevel(slog.LevelDebug))
	require.NoError(t, err)
	return mod
}

// Dictionary words are long enough not to collide with ordinary words.
func TestModerator_Censor_Chat_Messages(t *testing.T) {
	mod := newTestModerator(t, "spammer", "scam", "phishing")

	tests := []struct {
		name  string
		input string
		want  string
		words []string
	}{
		{
			name:  "should mask a word and keep the rest of the message",
			input: "hey, that account is a spammer",
			want:  "hey, that account is a #######",
			words: []string{"spammer"},
		},
		{
			name:  "should mask every occurrence",
			input: "scam scam scam",
			want:  "#### #### ####",
			words: []string{"scam", "scam", "scam"},
		},
		{
			name:  "should see through leet and separators",
			input: "this is a $.c.4.m ok?",
			want:  "this is a ####### ok?",
			words: []string{"scam"},
		},
		{
			name:  "should ignore case",
			input: "PHISHING link inside",
			want:  "######## link inside",
			words: []string{"phishing"},
		},
		{
			name:  "should keep accents and trailing punctuation",
			input: "arrêté pour scam!",
			want:  "arrêté pour ####!",
			words: []string{"scam"},
		},
		{
			name:  "should leave clean messages alone",
			input: "see you at 5pm",
			want:  "see you at 5pm",
		},
		{
			name:  "should accept an empty message",
			input: "",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			got, words := mod.Censor(tt.input)
			req.Equal(tt.want, got)
			req.Equal(tt.words, words)
		})
	}
}

func TestModerator_Skips_Noise_Only_Words(t *testing.T) {
	req := require.New(t)

	// Given a dictionary polluted with punctuation only entries
	mod := newTestModerator(t, "...", "!?", "", "scam")

	// Then real words are still found
	got, words := mod.Censor("not a scam")
	req.Equal("not a ####", got)
	req.Equal([]string{"scam"}, words)

	// And punctuation in messages is never masked
	got, words = mod.Censor("wait... what?!")
	req.Equal("wait... what?!", got)
	req.Nil(words)
}

func TestModerator_Without_Usable_Words_Is_A_NoOp(t *testing.T) {
	req := require.New(t)
	mod := newTestModerator(t, "...", " ")

	got, words := mod.Censor("anything goes")
	req.Equal("anything goes", got)
	req.Nil(words)
}

func TestLanguage(t *testing.T) {
	req := require.New(t)
	req.Equal("en", Language("The weather is lovely today and we are going for a long walk in the park"))
	req.Equal("fr", Language("Il fait vraiment beau aujourd'hui et nous allons faire une longue promenade dans le parc"))
}

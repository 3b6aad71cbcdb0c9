package moderation

import (
	"chat-relay/errors"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"
)

func TestCensoredLoader_LoadAll(t *testing.T) {
	req := require.New(t)

	// Given two dictionaries sharing a word, with comments and windows line endings
	fsys := fstest.MapFS{
		"words/en.txt":       {Data: []byte("# comment\r\nbadger\r\nsnake\r\n")},
		"words/fr.txt":       {Data: []byte("blaireau\nbadger\n\n")},
		"words/README.md":    {Data: []byte("ignored")},
		"words/nested/x.txt": {Data: []byte("ignored")},
	}

	// When loading the directory
	data, err := NewCensoredLoader(fsys).LoadAll("words")

	// Then words are deduplicated and each .txt file is a language
	req.NoError(err)
	req.ElementsMatch([]string{"badger", "snake", "blaireau"}, data.Words)
	req.ElementsMatch([]string{"en", "fr"}, data.Languages)
}

func TestCensoredLoader_Empty(t *testing.T) {
	req := require.New(t)

	// Given a dictionary with only blank lines
	fsys := fstest.MapFS{"words/en.txt": {Data: []byte("\n\n")}}

	// When loading
	_, err := NewCensoredLoader(fsys).LoadAll("words")

	// Then an empty dictionary is refused
	req.ErrorIs(err, errors.ErrEmptyWords)
}

func TestCensoredLoader_Embedded(t *testing.T) {
	req := require.New(t)

	// When loading the dictionaries shipped with the binary
	data, err := NewEmbeddedLoader().LoadAll("censored")

	// Then english and french are available
	req.NoError(err)
	req.NotEmpty(data.Words)
	req.Contains(data.Languages, "en")
	req.Contains(data.Languages, "fr")
}

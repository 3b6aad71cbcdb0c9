package moderation

import (
	"log/slog"
	"unicode"

	"github.com/abadojack/whatlanggo"
	goahocorasick "github.com/anknown/ahocorasick"
)

// Moderator masks dictionary words in chat messages and post bodies.
// Matching runs on a folded copy of the text (lower case, leet digits read
// as letters, punctuation and spaces removed) while masks are written over
// the runes of the text itself, so everything around a match is untouched.
type Moderator struct {
	machine *goahocorasick.Machine
	mask    rune
	log     *slog.Logger
}

// NewModerator builds the automaton. Words that fold to nothing are skipped,
// with no usable word left the moderator lets everything through.
func NewModerator(words []string, mask rune, log *slog.Logger) (*Moderator, error) {
	patterns := make([][]rune, 0, len(words))
	for _, word := range words {
		if folded, _ := fold([]rune(word)); len(folded) > 0 {
			patterns = append(patterns, folded)
		}
	}
	if len(patterns) == 0 {
		log.Warn("No usable censored word, moderation is a no-op")
		return &Moderator{mask: mask, log: log}, nil
	}

	machine := new(goahocorasick.Machine)
	if err := machine.Build(patterns); err != nil {
		return nil, err
	}
	return &Moderator{machine: machine, mask: mask, log: log}, nil
}

// Censor returns text with every match masked and the dictionary words
// matched, in order of appearance. Nil words means text is unchanged.
func (m *Moderator) Censor(text string) (string, []string) {
	if m.machine == nil || text == "" {
		return text, nil
	}
	runes := []rune(text)
	folded, positions := fold(runes)
	if len(folded) == 0 {
		return text, nil
	}

	var found []string
	for _, hit := range m.machine.MultiPatternSearch(folded, false) {
		end := hit.Pos + len(hit.Word)
		if hit.Pos < 0 || end > len(positions) {
			continue
		}
		// Noise between the first and last folded rune is masked as well.
		for i := positions[hit.Pos]; i <= positions[end-1]; i++ {
			runes[i] = m.mask
		}
		found = append(found, string(hit.Word))
	}
	if found == nil {
		return text, nil
	}

	m.log.Debug("Content censored", "words", len(found), "lang", Language(text))
	return string(runes), found
}

// Language returns the ISO 639-1 code of the most probable language of text.
func Language(text string) string {
	return whatlanggo.Detect(text).Lang.Iso6391()
}

// fold keeps the significant runes of input, lowered and de-leeted, along
// with the index each one had in input.
func fold(input []rune) ([]rune, []int) {
	folded := make([]rune, 0, len(input))
	positions := make([]int, 0, len(input))
	for i, r := range input {
		r = unleet(r)
		if unicode.IsPunct(r) || unicode.IsSpace(r) || unicode.IsSymbol(r) {
			continue
		}
		folded = append(folded, unicode.ToLower(r))
		positions = append(positions, i)
	}
	return folded, positions
}

func unleet(r rune) rune {
	switch r {
	case '4', '@':
		return 'a'
	case '3', '€':
		return 'e'
	case '1', '!', '|':
		return 'i'
	case '0':
		return 'o'
	case '5', '$':
		return 's'
	default:
		return r
	}
}

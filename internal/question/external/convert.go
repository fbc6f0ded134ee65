// Package external adapts public trivia APIs to question.Provider.
package external

import (
	"html"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/gokatarajesh/quiz-bank/internal/question"
)

const defaultTimeout = 5 * time.Second

// toInput builds a question from a provider entry. The correct answer is
// placed at a random position among the options. Entries that would not pass
// authoring validation are reported as !ok.
func toInput(text, correct string, incorrect []string, unescape bool) (question.Input, bool) {
	clean := strings.TrimSpace
	if unescape {
		clean = func(s string) string { return strings.TrimSpace(html.UnescapeString(s)) }
	}

	options := make([]string, 0, len(incorrect)+1)
	for _, opt := range incorrect {
		options = append(options, clean(opt))
	}
	options = append(options, clean(correct))
	rand.Shuffle(len(options), func(i, j int) { options[i], options[j] = options[j], options[i] })

	in := question.Input{
		Question: clean(text),
		Options:  options,
		Answer:   clean(correct),
	}
	if question.ValidateInput(in) != nil {
		return question.Input{}, false
	}
	return in, true
}

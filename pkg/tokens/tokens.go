package tokens

import (
	"sync"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
)

// Mode selects between the cheap estimator and the precise tokenizer.
type Mode int

const (
	Estimate Mode = iota
	Precise
)

func (m Mode) String() string {
	if m == Precise {
		return "precise"
	}
	return "estimate"
}

// Counter reports the token cost of a piece of text.
type Counter interface {
	Count(text string, mode Mode) (int, error)
}

// EncodingModel is the tiktoken model the precise counter encodes with.
const EncodingModel = "gpt-4-0613"

var encoding = sync.OnceValues(func() (*tiktoken.Tiktoken, error) {
	return tiktoken.EncodingForModel(EncodingModel)
})

// CountPrecise tokenizes text with the shared tiktoken encoding. Empty text
// costs nothing and never touches the encoding.
func CountPrecise(text string) (int, error) {
	if text == "" {
		return 0, nil
	}
	tkm, err := encoding()
	if err != nil {
		return 0, err
	}
	return len(tkm.Encode(text, nil, nil)), nil
}

// CountEstimate approximates the token cost as one token per four runes,
// rounded up. Cheap enough to run over an entire history every call.
func CountEstimate(text string) int {
	return (utf8.RuneCountInString(text) + 3) / 4
}

package tokenizer

import (
	"errors"
)

// CountResult captures the outcome of counting a piece of text.
type CountResult struct {
	Tokens int
	Model  string
}

// CountText estimates tokens for text using counter and labels the result with model.
func CountText(counter Counter, model string, text string) (CountResult, error) {
	if counter == nil {
		return CountResult{}, errors.New("nil tokenizer counter")
	}
	tokens, err := counter.CountString(text)
	if err != nil {
		return CountResult{}, err
	}
	return CountResult{Tokens: tokens, Model: model}, nil
}

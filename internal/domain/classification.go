package domain

import "context"

// Classification is the oracle's verdict for one text.
type Classification struct {
	Label        Emotion
	Confidence   float64
	Language     Language
	DisplayLabel string
	Fallback     bool
}

// Classifier never fails from the caller's perspective: on any oracle problem it
// returns a neutral fallback with Fallback set.
type Classifier interface {
	Classify(ctx context.Context, text string) Classification
}

// FallbackClassification is what Classifier implementations return when the oracle
// cannot answer.
func FallbackClassification(text string) Classification {
	lang := DetectLanguage(text)
	return Classification{
		Label:        Neutral,
		Confidence:   0.5,
		Language:     lang,
		DisplayLabel: Neutral.Display(lang),
		Fallback:     true,
	}
}

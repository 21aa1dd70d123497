package oracle

import "github.com/pscheid92/moodpulse/internal/domain"

// goEmotions maps the English model's raw go_emotions labels onto our label set.
// Labels that already exist in the domain table resolve directly.
var goEmotions = map[string]domain.Emotion{
	"admiration":     domain.Gratitude,
	"amusement":      domain.Joy,
	"annoyance":      domain.Anger,
	"approval":       domain.Gratitude,
	"caring":         domain.Love,
	"curiosity":      domain.Excitement,
	"desire":         domain.Love,
	"disappointment": domain.Sadness,
	"disapproval":    domain.Anger,
	"grief":          domain.Sadness,
	"nervousness":    domain.Fear,
	"optimism":       domain.Joy,
	"pride":          domain.Joy,
	"realization":    domain.Surprise,
	"relief":         domain.Serenity,
	"remorse":        domain.Shame,
}

// resolveLabel returns the domain label for a raw oracle label and whether the
// raw value was remapped.
func resolveLabel(raw string) (domain.Emotion, bool, bool) {
	if e, err := domain.ParseEmotion(raw); err == nil {
		return e, false, true
	}
	if e, ok := goEmotions[raw]; ok {
		return e, true, true
	}
	return 0, false, false
}

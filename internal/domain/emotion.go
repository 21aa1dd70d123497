package domain

import "fmt"

// Emotion is one label of the closed emotion enumeration. The numeric value is
// the label's ordinal, which is also the tie-break order for vote tallies.
type Emotion uint8

const (
	Joy Emotion = iota
	Sadness
	Anger
	Fear
	Surprise
	Neutral
	Gratitude
	Excitement
	Love
	Loneliness
	Anticipation
	Disgust
	Jealousy
	Embarrassment
	Serenity
	Shame
	Confusion
	NoEmotion
)

type emotionInfo struct {
	key string
	ru  string
	en  string
}

var emotionTable = [...]emotionInfo{
	Joy:           {"joy", "радость", "joy"},
	Sadness:       {"sadness", "грусть", "sadness"},
	Anger:         {"anger", "гнев", "anger"},
	Fear:          {"fear", "страх", "fear"},
	Surprise:      {"surprise", "удивление", "surprise"},
	Neutral:       {"neutral", "нейтрально", "neutral"},
	Gratitude:     {"gratitude", "благодарность", "gratitude"},
	Excitement:    {"excitement", "волнение", "excitement"},
	Love:          {"love", "любовь", "love"},
	Loneliness:    {"loneliness", "одиночество", "loneliness"},
	Anticipation:  {"anticipation", "ожидание", "anticipation"},
	Disgust:       {"disgust", "отвращение", "disgust"},
	Jealousy:      {"jealousy", "ревность", "jealousy"},
	Embarrassment: {"embarrassment", "смущение", "embarrassment"},
	Serenity:      {"serenity", "спокойствие", "serenity"},
	Shame:         {"shame", "стыд", "shame"},
	Confusion:     {"confusion", "замешательство", "confusion"},
	NoEmotion:     {"no_emotion", "нет эмоции", "no emotion"},
}

var emotionByKey = func() map[string]Emotion {
	m := make(map[string]Emotion, len(emotionTable))
	for i, info := range emotionTable {
		m[info.key] = Emotion(i)
	}
	return m
}()

// AllEmotions returns every label in ordinal order.
func AllEmotions() []Emotion {
	all := make([]Emotion, len(emotionTable))
	for i := range emotionTable {
		all[i] = Emotion(i)
	}
	return all
}

// ParseEmotion converts a wire key such as "no_emotion" to an Emotion.
func ParseEmotion(s string) (Emotion, error) {
	e, ok := emotionByKey[s]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownEmotion, s)
	}
	return e, nil
}

func (e Emotion) Valid() bool {
	return int(e) < len(emotionTable)
}

// String returns the wire key.
func (e Emotion) String() string {
	if !e.Valid() {
		return fmt.Sprintf("emotion(%d)", uint8(e))
	}
	return emotionTable[e].key
}

// Display returns the localized name shown to users.
func (e Emotion) Display(lang Language) string {
	if !e.Valid() {
		return e.String()
	}
	if lang == LanguageRussian {
		return emotionTable[e].ru
	}
	return emotionTable[e].en
}

func (e Emotion) MarshalText() ([]byte, error) {
	if !e.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownEmotion, uint8(e))
	}
	return []byte(e.String()), nil
}

func (e *Emotion) UnmarshalText(text []byte) error {
	parsed, err := ParseEmotion(string(text))
	if err != nil {
		return err
	}
	*e = parsed
	return nil
}

package app

import (
	"fmt"
	"time"

	"github.com/pscheid92/moodpulse/internal/domain"
)

const emotionsPerRow = 3

func feedbackKeyboard() domain.Keyboard {
	return domain.Keyboard{{
		{Text: "👍 Подходит", Token: domain.Callback{Kind: domain.CallbackConfirm}.Token()},
		{Text: "👎 Не подходит", Token: domain.Callback{Kind: domain.CallbackReject}.Token()},
	}}
}

// emotionKeyboard lists every label, emotionsPerRow per row, in ordinal order.
func emotionKeyboard() domain.Keyboard {
	var rows domain.Keyboard
	var row []domain.Button
	for _, e := range domain.AllEmotions() {
		row = append(row, domain.Button{
			Text:  e.Display(domain.LanguageRussian),
			Token: domain.Callback{Kind: domain.CallbackSelect, Label: e}.Token(),
		})
		if len(row) == emotionsPerRow {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	return rows
}

func proposalText(c domain.Classification, withMedia bool) string {
	if withMedia {
		return fmt.Sprintf("Я думаю, это %s...", c.DisplayLabel)
	}
	return fmt.Sprintf("%s (уверенность: %.0f%%)", c.DisplayLabel, c.Confidence*100)
}

func consensusText(label domain.Emotion, votes int, lang domain.Language) string {
	return fmt.Sprintf("На основе голосования: %s (голосов: %d)", label.Display(lang), votes)
}

func voteCountedText(label domain.Emotion, votes int, lang domain.Language) string {
	return fmt.Sprintf("✅ Ваш голос учтён: %s (голосов: %d)", label.Display(lang), votes)
}

func correctionText(label domain.Emotion, votes int, lang domain.Language) string {
	return fmt.Sprintf("✅ Спасибо за помощь! Благодаря вам, я стал умнее!\nВыбрано: %s (голосов: %d)", label.Display(lang), votes)
}

const correctionPrompt = "Какая эмоция подходит лучше?"

func waitText(cooldown time.Duration) string {
	return fmt.Sprintf("Пожалуйста, подождите %d секунд перед следующим запросом.", int(cooldown.Seconds()))
}

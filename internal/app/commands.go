package app

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/pscheid92/moodpulse/internal/domain"
	"github.com/pscheid92/moodpulse/internal/metrics"
)

const (
	historyLimit       = 5
	historyPreviewLen  = 20
	statsTopN          = 3
	historyTimeLayout  = "02.01 15:04"
	historyDisplayLang = domain.LanguageRussian
)

const startText = "Hello! I'm an emotion detection bot.\n" +
	"Send me a message in English or Russian and I'll identify the emotion.\n" +
	"If I get it wrong, tell me: I remember your answer for that exact text and show it to everyone who sends it next.\n" +
	"Use /how_i_work to learn more.\n\n" +
	"Привет! Я бот для определения эмоций.\n" +
	"Отправьте мне сообщение на английском или русском, и я определю эмоцию.\n" +
	"Если я ошибся, поправьте меня: я запомню ваш ответ для этого текста и покажу его всем, кто отправит его снова.\n" +
	"Подробнее: /how_i_work"

const helpText = "Доступные команды:\n" +
	"/start - Начало работы\n" +
	"/help - Справка\n" +
	"/stats - Ваша статистика эмоций\n" +
	"/history - Ваша история (последние 5 сообщений)\n" +
	"/how_i_work - Как я работаю\n" +
	"Просто напишите сообщение для анализа!"

const howIWorkText = "🤖 Как я работаю:\n\n" +
	"Я определяю эмоцию в тексте с помощью модели классификации.\n\n" +
	"🔹 Обратная связь:\n" +
	"Под каждым ответом есть кнопки 👍 и 👎. Если я ошибся, нажмите 'Не подходит' и выберите верную эмоцию.\n\n" +
	"🔹 Голосование:\n" +
	"Как только за текст отдан хотя бы один голос, я больше не спрашиваю модель: " +
	"для этого текста всегда показывается эмоция, набравшая больше всего голосов.\n\n" +
	"🔹 Ограничение:\n" +
	"Не чаще одного запроса в 10 секунд."

func (c *Conversation) handleCommand(ctx context.Context, msg domain.InboundMessage) {
	var text string
	switch msg.Command {
	case "start":
		text = startText
	case "help":
		text = helpText
	case "how_i_work":
		text = howIWorkText
	case "stats":
		text = statsText(c.state.History.Entries(msg.UserID))
	case "history":
		text = historyText(c.state.History.Recent(msg.UserID, historyLimit))
	default:
		metrics.CommandsTotal.WithLabelValues("unknown").Inc()
		c.send(ctx, msg.ChatID, domain.Outgoing{Text: helpText})
		return
	}
	metrics.CommandsTotal.WithLabelValues(msg.Command).Inc()
	c.send(ctx, msg.ChatID, domain.Outgoing{Text: text})
}

type labelCount struct {
	label domain.Emotion
	count int
}

// statsText renders the full label distribution of a user's history, most frequent
// first, followed by the top three and the total.
func statsText(entries []domain.HistoryEntry) string {
	if len(entries) == 0 {
		return "У вас пока нет истории эмоций."
	}

	counts := make(map[domain.Emotion]int)
	for _, e := range entries {
		counts[e.Label]++
	}
	sorted := make([]labelCount, 0, len(counts))
	for label, n := range counts {
		sorted = append(sorted, labelCount{label: label, count: n})
	}
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].count != sorted[j].count {
			return sorted[i].count > sorted[j].count
		}
		return sorted[i].label < sorted[j].label
	})

	total := len(entries)
	var b strings.Builder
	b.WriteString("📊 Полная статистика ваших эмоций:\n\n")
	for _, lc := range sorted {
		pct := float64(lc.count) / float64(total) * 100
		fmt.Fprintf(&b, "• %s: %d (%.1f%%)\n", lc.label.Display(historyDisplayLang), lc.count, pct)
	}

	b.WriteString("\n🏆 Топ-3 эмоции:\n")
	for i, lc := range sorted {
		if i == statsTopN {
			break
		}
		fmt.Fprintf(&b, "%d. %s - %d раз\n", i+1, lc.label.Display(historyDisplayLang), lc.count)
	}

	fmt.Fprintf(&b, "\nВсего анализов: %d", total)
	return b.String()
}

// historyText renders recent entries, newest first.
func historyText(recent []domain.HistoryEntry) string {
	if len(recent) == 0 {
		return "У вас пока нет истории запросов."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🕒 Последние %d запросов:\n\n", historyLimit)
	for i, e := range recent {
		fmt.Fprintf(&b, "%d. %s\n→ %s\n%s\n\n",
			i+1,
			preview(e.Text, historyPreviewLen),
			e.Label.Display(historyDisplayLang),
			e.Timestamp.Format(historyTimeLayout),
		)
	}
	return strings.TrimRight(b.String(), "\n")
}

func preview(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n]) + "..."
}

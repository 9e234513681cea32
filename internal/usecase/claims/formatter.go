package claims

import (
	"fmt"
	"html"
	"strconv"
	"strings"
	"time"

	"tg-miner-bot/internal/domain"
)

const lamportsPerUnit = 1_000_000_000

// FormatLamports переводит сумму из наименьших единиц в строку для
// показа. Деление на 1e9 происходит только здесь, на границе отображения.
func FormatLamports(amount uint64) string {
	whole := amount / lamportsPerUnit
	frac := amount % lamportsPerUnit
	if frac == 0 {
		return strconv.FormatUint(whole, 10)
	}
	fracStr := strings.TrimRight(fmt.Sprintf("%09d", frac), "0")
	return fmt.Sprintf("%d.%s", whole, fracStr)
}

// render строит текст агрегированного сообщения: записи свежее — выше,
// самая свежая без метки времени, остальные с грубой относительной меткой.
func render(entries []domain.ClaimEntry, now time.Time) string {
	var b strings.Builder
	b.WriteString("⛏ <b>Авто-клейм</b>\n")
	for i, entry := range entries {
		b.WriteString("• ")
		b.WriteString(html.EscapeString(entry.Description))
		if i > 0 {
			b.WriteString(" — ")
			b.WriteString(relativeLabel(now.Sub(entry.ClaimedAt)))
		}
		b.WriteString("\n")
	}
	return strings.TrimSpace(b.String())
}

// relativeLabel — грубая метка давности: только что / минуты / часы.
func relativeLabel(age time.Duration) string {
	switch {
	case age < time.Minute:
		return "только что"
	case age < time.Hour:
		return fmt.Sprintf("~%d мин назад", int(age.Minutes()))
	default:
		return fmt.Sprintf("~%d ч назад", int(age.Hours()))
	}
}

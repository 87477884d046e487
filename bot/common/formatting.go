package common

import (
	"fmt"
	"strings"
	"time"

	"rifa/domain/entities"

	"github.com/govalues/decimal"
)

// FormatCurrency formats an amount in Brazilian reais (1234.5 -> "R$ 1.234,50")
func FormatCurrency(amount decimal.Decimal) string {
	str := amount.Round(2).Pad(2).String()

	sign := ""
	if strings.HasPrefix(str, "-") {
		sign = "-"
		str = str[1:]
	}

	whole, frac, _ := strings.Cut(str, ".")

	// Add dots for thousands
	var result strings.Builder
	n := len(whole)
	for i, digit := range whole {
		if i > 0 && (n-i)%3 == 0 {
			result.WriteRune('.')
		}
		result.WriteRune(digit)
	}

	return fmt.Sprintf("%sR$ %s,%s", sign, result.String(), frac)
}

// FormatNumberList renders zero-padded numbers separated by commas, cutting
// the list after limit entries (limit <= 0 shows everything)
func FormatNumberList(numbers []int, limit int) string {
	if len(numbers) == 0 {
		return "Nenhum"
	}

	shown := numbers
	if limit > 0 && len(numbers) > limit {
		shown = numbers[:limit]
	}

	parts := make([]string, len(shown))
	for i, n := range shown {
		parts[i] = entities.FormatTicketNumber(n)
	}

	out := strings.Join(parts, ", ")
	if hidden := len(numbers) - len(shown); hidden > 0 {
		out += fmt.Sprintf(" e mais %d", hidden)
	}
	return out
}

// FormatCountdown formats a remaining duration as mm:ss, rounding up
func FormatCountdown(d time.Duration) string {
	if d <= 0 {
		return "00:00"
	}
	seconds := int((d + time.Second - 1) / time.Second)
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

// FormatDiscordTimestamp formats a time as a Discord timestamp that displays in user's local timezone
// Format types: "t" = short time, "T" = long time, "d" = short date, "D" = long date,
// "f" = short date/time, "F" = long date/time, "R" = relative time
func FormatDiscordTimestamp(t time.Time, format string) string {
	return fmt.Sprintf("<t:%d:%s>", t.Unix(), format)
}

// FormatDuration formats a duration in a human-readable pt-BR form
// Examples: "2h 30min", "10min", "45s"
func FormatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}

	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60

	var parts []string
	if hours > 0 {
		parts = append(parts, fmt.Sprintf("%dh", hours))
	}
	if minutes > 0 || len(parts) == 0 {
		parts = append(parts, fmt.Sprintf("%dmin", minutes))
	}

	return strings.Join(parts, " ")
}

// Pluralize picks the singular or plural form for count
func Pluralize(count int, singular, plural string) string {
	if count == 1 {
		return singular
	}
	return plural
}

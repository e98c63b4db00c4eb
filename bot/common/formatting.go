package common

import (
	"fmt"
	"strings"
	"time"
)

// FormatBalance formats a currency amount with thousand separators
func FormatBalance(balance int64) string {
	str := fmt.Sprintf("%d", balance)
	negative := false
	if strings.HasPrefix(str, "-") {
		negative = true
		str = str[1:]
	}

	n := len(str)
	if n > 3 {
		var result strings.Builder
		for i, digit := range str {
			if i > 0 && (n-i)%3 == 0 {
				result.WriteRune(',')
			}
			result.WriteRune(digit)
		}
		str = result.String()
	}

	if negative {
		return "-" + str
	}
	return str
}

// FormatOdds formats an informational odds quote, "---" when nothing has been
// staked yet
func FormatOdds(odds *float64) string {
	if odds == nil {
		return "---"
	}
	return fmt.Sprintf("%.1f倍", *odds)
}

// FormatDiscordTimestamp formats a time as a Discord timestamp that displays
// in the user's local timezone. Format types: "t" short time, "R" relative.
func FormatDiscordTimestamp(t time.Time, format string) string {
	return fmt.Sprintf("<t:%d:%s>", t.Unix(), format)
}

// FormatRank renders a placing with medals for the top three
func FormatRank(rank int) string {
	switch rank {
	case 1:
		return "🥇"
	case 2:
		return "🥈"
	case 3:
		return "🥉"
	default:
		return fmt.Sprintf("%d着", rank)
	}
}

package ui

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// humanizeDuration renders the two largest units of d.
func humanizeDuration(d time.Duration) string {
	if d < time.Second {
		return "now"
	}
	days := int(d / (24 * time.Hour))
	hours := int(d/time.Hour) % 24
	minutes := int(d/time.Minute) % 60
	seconds := int(d/time.Second) % 60
	switch {
	case days > 0 && hours > 0:
		return fmt.Sprintf("%dd %dh", days, hours)
	case days > 0:
		return fmt.Sprintf("%dd", days)
	case hours > 0 && minutes > 0:
		return fmt.Sprintf("%dh %dm", hours, minutes)
	case hours > 0:
		return fmt.Sprintf("%dh", hours)
	case minutes > 0:
		return fmt.Sprintf("%dm", minutes)
	default:
		return fmt.Sprintf("%ds", seconds)
	}
}

// formatUnix renders epoch seconds in local time, or "" when unset.
func formatUnix(sec int64) string {
	if sec == 0 {
		return ""
	}
	return time.Unix(sec, 0).Format("01/02 15:04")
}

// formatKB renders a kilobyte count from the gateway's string counters.
func formatKB(raw string) string {
	kb, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || kb <= 0 {
		return "0K"
	}
	units := []string{"K", "M", "G", "T"}
	value := float64(kb)
	i := 0
	for value >= 1024 && i < len(units)-1 {
		value /= 1024
		i++
	}
	if i == 0 {
		return fmt.Sprintf("%dK", kb)
	}
	return fmt.Sprintf("%.1f%s", value, units[i])
}

// progressBar draws fraction as a fixed-width bar with a percentage.
func progressBar(fraction float64, width int) string {
	if fraction < 0 {
		fraction = 0
	}
	if fraction > 1 {
		fraction = 1
	}
	if width < 1 {
		return fmt.Sprintf("%3d%%", int(fraction*100))
	}
	filled := int(fraction * float64(width))
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled) +
		fmt.Sprintf(" %3d%%", int(fraction*100))
}

func truncateMiddle(value string, limit int) string {
	value = strings.TrimSpace(value)
	if limit <= 0 || value == "" {
		return value
	}
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	if limit <= 3 {
		return string(runes[:limit])
	}
	keep := limit - 1 // room for ellipsis rune
	prefix := keep / 2
	suffix := keep - prefix
	return string(runes[:prefix]) + "…" + string(runes[len(runes)-suffix:])
}

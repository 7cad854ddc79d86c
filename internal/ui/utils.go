package ui

import (
	"fmt"
	"math"
	"strings"
)

func truncate(s string, length int) string {
	if length <= 3 {
		return "..."
	}
	if len(s) > length {
		return s[:length-3] + "..."
	}
	return s
}

// meter renders percent (0-100) as a bar of width cells.
func meter(percent, width int) string {
	if width <= 0 {
		return ""
	}
	percent = max(0, min(100, percent))
	filled := percent * width / 100
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

func formatDuration(seconds float64) string {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds < 0 {
		return "--:--"
	}
	total := int(seconds)
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}

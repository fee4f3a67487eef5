package drafts

import (
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"telegram-post-guard/internal/models"
)

const (
	skipToken = "skip"
	nowToken  = "now"

	buttonSeparator = "|"
)

// IsSkip accepts "skip" and "/skip" in any case.
func IsSkip(text string) bool {
	t := strings.TrimPrefix(strings.TrimSpace(text), "/")
	return strings.EqualFold(t, skipToken)
}

// ParseButtons reads one "Label | https://url" definition per line.
// Lines without the separator, or with an empty side, are dropped.
func ParseButtons(text string) []models.Button {
	buttons := []models.Button{}
	for _, line := range strings.Split(text, "\n") {
		label, url, ok := strings.Cut(line, buttonSeparator)
		if !ok {
			continue
		}
		label, url = strings.TrimSpace(label), strings.TrimSpace(url)
		if label == "" || url == "" {
			continue
		}
		buttons = append(buttons, models.Button{Label: label, URL: url})
	}
	return buttons
}

// ParseTime resolves "now", "in <duration>" (Go duration syntax, e.g. "in 1h30m")
// or any layout dateparse understands, interpreted in loc.
func ParseTime(text string, now time.Time, loc *time.Location) (time.Time, error) {
	t := strings.TrimSpace(text)
	if strings.EqualFold(t, nowToken) {
		return now.In(loc), nil
	}
	if rest, ok := cutPrefixFold(t, "in "); ok {
		d, err := time.ParseDuration(strings.ReplaceAll(rest, " ", ""))
		if err == nil && d >= 0 {
			return now.Add(d).In(loc), nil
		}
	}
	return dateparse.ParseIn(t, loc)
}

func cutPrefixFold(s, prefix string) (string, bool) {
	if len(s) < len(prefix) || !strings.EqualFold(s[:len(prefix)], prefix) {
		return s, false
	}
	return s[len(prefix):], true
}

// Delay is the time left until at, never negative.
func Delay(at, now time.Time) time.Duration {
	if d := at.Sub(now); d > 0 {
		return d
	}
	return 0
}

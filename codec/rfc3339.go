package codec

import (
	"time"

	"github.com/reoring/bindkit"
)

// TimeRFC3339 returns the adapter that carries time.Time as an RFC3339
// string. Output is normalized to UTC with trailing zeros trimmed.
func TimeRFC3339() bindkit.Adapter[time.Time] {
	return New(parseRFC3339, func(t time.Time) (string, error) { return formatRFC3339Canonical(t), nil })
}

// Duration returns the adapter that carries time.Duration as a Go duration
// string such as "1h30m".
func Duration() bindkit.Adapter[time.Duration] {
	return New(time.ParseDuration, func(d time.Duration) (string, error) { return d.String(), nil })
}

func parseRFC3339(s string) (time.Time, error) {
	// Accept RFC3339Nano (trailing zeros optional)
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		if t2, err2 := time.Parse(time.RFC3339, s); err2 == nil {
			return t2, nil
		}
		return time.Time{}, err
	}
	return t, nil
}

func formatRFC3339Canonical(t time.Time) string {
	// Normalize to UTC and format using RFC3339Nano (Go trims trailing zeros)
	return t.UTC().Format(time.RFC3339Nano)
}

// config/duration.go
package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// parseDurationFlexible accepts "90s"/"2m" strings, plain seconds (as a
// number or numeric string) and time.Duration. Zero and negative values are
// rejected. Unknown types and empty strings yield def without an error.
func parseDurationFlexible(raw any, def time.Duration) (time.Duration, error) {
	var d time.Duration
	switch t := raw.(type) {
	case time.Duration:
		d = t
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return def, nil
		}
		parsed, err := time.ParseDuration(s)
		if err != nil {
			n, nerr := strconv.ParseFloat(s, 64)
			if nerr != nil {
				return def, fmt.Errorf("cannot parse duration %q", s)
			}
			parsed = seconds(n)
		}
		d = parsed
	case int:
		d = seconds(float64(t))
	case int32:
		d = seconds(float64(t))
	case int64:
		d = seconds(float64(t))
	case float64:
		d = seconds(t)
	default:
		return def, nil
	}
	if d <= 0 {
		return def, fmt.Errorf("duration must be >0, got %v", raw)
	}
	return d, nil
}

func seconds(n float64) time.Duration {
	return time.Duration(n * float64(time.Second))
}

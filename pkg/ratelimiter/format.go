package ratelimiter

import (
	"fmt"
	"math"
	"time"
)

// RetryAfterSeconds rounds d up to whole seconds, never below 1.
func RetryAfterSeconds(d time.Duration) int {
	return max(int(math.Ceil(d.Seconds())), 1)
}

// FormatRetryAfter renders d for humans: "45 seconds" below one minute,
// "2 minutes" from one minute on. Both units round up.
func FormatRetryAfter(d time.Duration) string {
	secs := RetryAfterSeconds(d)
	if secs < 60 {
		return plural(secs, "second")
	}
	return plural(int(math.Ceil(float64(secs)/60)), "minute")
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

package auth

import (
	"regexp"
	"strconv"
	"time"
)

// DefaultLifetime is used whenever a lifetime string can't be parsed.
// Lenient fallback instead of an error: a misconfigured lifetime should
// not keep the service from starting
const DefaultLifetime = 900 * time.Second

var lifetimePattern = regexp.MustCompile(`^(\d+)([smhd])$`)

// ParseLifetime parses lifetime strings like "30s", "15m", "2h" or "7d"
func ParseLifetime(value string) time.Duration {
	match := lifetimePattern.FindStringSubmatch(value)
	if match == nil {
		return DefaultLifetime
	}

	n, err := strconv.ParseInt(match[1], 10, 64)
	if err != nil {
		return DefaultLifetime
	}

	switch match[2] {
	case "s":
		return time.Duration(n) * time.Second
	case "m":
		return time.Duration(n) * time.Minute
	case "h":
		return time.Duration(n) * time.Hour
	case "d":
		return time.Duration(n) * 24 * time.Hour
	default:
		return DefaultLifetime
	}
}

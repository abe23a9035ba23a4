package usage

import (
	"math"
	"strings"
	"time"
)

// Activity levels bucket users by how recently they generated usage.
const (
	LevelHigh     = "high"
	LevelMedium   = "medium"
	LevelLow      = "low"
	LevelInactive = "inactive"
)

const (
	UserTypeInternal = "internal"
	UserTypeExternal = "external"
)

// DaysSince returns whole elapsed days between latest and now, clamped
// at zero so clock skew can't produce negative ages.
func DaysSince(latest, now time.Time) int {
	if latest.IsZero() || !latest.Before(now) {
		return 0
	}
	return int(now.Sub(latest).Hours() / 24)
}

// Score is the fractional days since last activity, rounded to two
// decimals. Lower means more recently active.
func Score(latest, now time.Time) float64 {
	if latest.IsZero() || !latest.Before(now) {
		return 0
	}
	days := now.Sub(latest).Hours() / 24
	return math.Round(days*100) / 100
}

// Level buckets a whole-day age: up to two days is high, exactly three
// is medium, anything older is low.
func Level(days int) string {
	switch {
	case days <= 2:
		return LevelHigh
	case days == 3:
		return LevelMedium
	default:
		return LevelLow
	}
}

// LevelForTime handles the no-activity case before bucketing.
func LevelForTime(latest, now time.Time) string {
	if latest.IsZero() {
		return LevelInactive
	}
	return Level(DaysSince(latest, now))
}

// Credits converts an estimated dollar cost into display credits at the
// fixed 100-credits-per-dollar rate.
func Credits(costDollars float64) int64 {
	return int64(math.Round(costDollars * 100))
}

// TypeForEmail classifies a user by email domain. Anything outside the
// given internal domains, including rows with no email at all, counts
// as external.
func TypeForEmail(email string, internalDomains []string) string {
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return UserTypeExternal
	}
	domain := strings.ToLower(email[at+1:])
	for _, internal := range internalDomains {
		if domain == strings.ToLower(internal) {
			return UserTypeInternal
		}
	}
	return UserTypeExternal
}

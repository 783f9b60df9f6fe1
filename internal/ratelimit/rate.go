// Package ratelimit enforces per-identity request budgets grouped into throttle classes.
package ratelimit

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Rate is a request budget over a fixed window. The zero Rate disables throttling.
type Rate struct {
	Limit  int64
	Window time.Duration
}

// Enabled reports whether the rate imposes a budget.
func (r Rate) Enabled() bool {
	return r.Limit > 0 && r.Window > 0
}

func (r Rate) String() string {
	if !r.Enabled() {
		return ""
	}
	return fmt.Sprintf("%d/%s", r.Limit, r.Window)
}

// ParseRate parses "<count>/<unit>". Only the first letter of the unit is significant,
// so "min" and "minute" are equivalent. An empty string yields the disabled Rate.
func ParseRate(s string) (Rate, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Rate{}, nil
	}

	count, unit, ok := strings.Cut(s, "/")
	if !ok {
		return Rate{}, fmt.Errorf("rate %q: expected <count>/<unit>", s)
	}
	limit, err := strconv.ParseInt(strings.TrimSpace(count), 10, 64)
	if err != nil || limit < 0 {
		return Rate{}, fmt.Errorf("rate %q: invalid count", s)
	}

	unit = strings.ToLower(strings.TrimSpace(unit))
	if unit == "" {
		return Rate{}, fmt.Errorf("rate %q: missing unit", s)
	}
	var window time.Duration
	switch unit[0] {
	case 's':
		window = time.Second
	case 'm':
		window = time.Minute
	case 'h':
		window = time.Hour
	case 'd':
		window = 24 * time.Hour
	default:
		return Rate{}, fmt.Errorf("rate %q: unknown unit %q", s, unit)
	}

	if limit == 0 {
		return Rate{}, nil
	}
	return Rate{Limit: limit, Window: window}, nil
}

// ParseRates parses a class-to-rate mapping. Classes with an empty rate are kept as
// disabled so they still count as configured.
func ParseRates(raw map[string]string) (map[string]Rate, error) {
	rates := make(map[string]Rate, len(raw))
	for class, value := range raw {
		rate, err := ParseRate(value)
		if err != nil {
			return nil, fmt.Errorf("throttle class %s: %w", class, err)
		}
		rates[class] = rate
	}
	return rates, nil
}

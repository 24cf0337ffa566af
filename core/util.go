package core

import (
	"strings"
	"time"
)

// NowFunc returns the current time. Tests may swap it.
var NowFunc = func() time.Time { return time.Now().UTC() }

// CleanString trims all leading and trailing whitespace in `s` and optionally lowers it.
func CleanString(s string, lower ...bool) string {
	s = strings.TrimSpace(s)
	if len(lower) > 0 && lower[0] {
		return strings.ToLower(s)
	}
	return s
}

// CleanStrings applies CleanString to each item of `ss`, dropping the empty ones.
func CleanStrings(ss []string, lower ...bool) []string {
	if ss == nil {
		return nil
	}
	clean := make([]string, 0, len(ss))
	for _, s := range ss {
		if s = CleanString(s, lower...); s != "" {
			clean = append(clean, s)
		}
	}
	return clean
}

func BoolPtr(b bool) *bool { return &b }

func IntPtr(i int) *int { return &i }

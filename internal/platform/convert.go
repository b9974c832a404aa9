package platform

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/sammy0329/samyang-rnd-ai-agent-sub000/internal/domain"
)

var iso8601Duration = regexp.MustCompile(`^P(?:(\d+)D)?(?:T(?:(\d+)H)?(?:(\d+)M)?(?:(\d+(?:\.\d+)?)S)?)?$`)

// ParseISO8601Duration converts a YouTube contentDetails duration such as
// "PT1M5S" to whole seconds.
func ParseISO8601Duration(s string) (int, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	m := iso8601Duration.FindStringSubmatch(s)
	if m == nil || s == "P" || strings.HasSuffix(s, "T") {
		return 0, false
	}

	var total float64
	units := []float64{86400, 3600, 60, 1}
	for i, unit := range units {
		if m[i+1] == "" {
			continue
		}
		v, err := strconv.ParseFloat(m[i+1], 64)
		if err != nil {
			return 0, false
		}
		total += v * unit
	}

	return int(total), true
}

// ParseClockDuration converts "H:MM:SS", "M:SS" or "SS" to seconds.
func ParseClockDuration(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}

	parts := strings.Split(s, ":")
	if len(parts) > 3 {
		return 0, false
	}

	total := 0
	for _, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return 0, false
		}
		total = total*60 + n
	}

	return total, true
}

// KeepShortForm drops items longer than domain.ShortFormMaxSeconds. Items
// with an unknown duration are kept unless dropUnknown is set.
func KeepShortForm(items []domain.RawItem, dropUnknown bool) []domain.RawItem {
	out := items[:0]
	for _, it := range items {
		if it.DurationSeconds == nil {
			if !dropUnknown {
				out = append(out, it)
			}
			continue
		}
		if *it.DurationSeconds <= domain.ShortFormMaxSeconds {
			out = append(out, it)
		}
	}
	return out
}

var hashtagPattern = regexp.MustCompile(`#([\p{L}\p{N}_]+)`)

// Hashtags extracts "#tag" tokens from free text, without the hash, deduplicated.
func Hashtags(text string) []string {
	matches := hashtagPattern.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(matches))
	tags := make([]string, 0, len(matches))
	for _, m := range matches {
		tag := m[1]
		key := strings.ToLower(tag)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		tags = append(tags, tag)
	}
	return tags
}

// ParseTime parses RFC 3339 timestamps, returning nil when absent or invalid.
func ParseTime(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil
	}
	t = t.UTC()
	return &t
}

// ParseCount parses an integer count serialized as a string.
func ParseCount(s string) *int64 {
	if s == "" {
		return nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil
	}
	return &n
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}

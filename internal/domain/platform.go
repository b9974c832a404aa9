// Package domain holds the canonical trend records, collection options and
// the error taxonomy shared by adapters, the collector and the enricher.
package domain

import (
	"encoding/json"
	"fmt"
	"net/url"
	"slices"
	"strings"
)

// Platform is the closed set of video platforms a record can belong to.
type Platform string

const (
	PlatformYouTube   Platform = "YouTube"
	PlatformTikTok    Platform = "TikTok"
	PlatformInstagram Platform = "Instagram"
	PlatformFacebook  Platform = "Facebook"
	PlatformOther     Platform = "Other"
)

// CollectablePlatforms are the platforms a caller may select for collection,
// in adapter-iteration order.
var CollectablePlatforms = []Platform{PlatformYouTube, PlatformTikTok, PlatformInstagram}

// ParsePlatform maps a case-insensitive name to a Platform.
func ParsePlatform(s string) (Platform, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "youtube":
		return PlatformYouTube, nil
	case "tiktok":
		return PlatformTikTok, nil
	case "instagram":
		return PlatformInstagram, nil
	case "facebook":
		return PlatformFacebook, nil
	case "other":
		return PlatformOther, nil
	default:
		return "", fmt.Errorf("unknown platform %q", s)
	}
}

// IsCollectable reports whether p has a search adapter.
func (p Platform) IsCollectable() bool {
	for _, c := range CollectablePlatforms {
		if c == p {
			return true
		}
	}
	return false
}

// UnmarshalJSON accepts any casing ("youtube", "YouTube").
func (p *Platform) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	parsed, err := ParsePlatform(s)
	if err != nil {
		return err
	}

	*p = parsed
	return nil
}

// PlatformFromURL tags a result by its host. Used when a generic search
// result set replaces a platform-specific one.
func PlatformFromURL(raw string) Platform {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return PlatformOther
	}

	host := strings.ToLower(u.Hostname())
	switch {
	case hostMatches(host, "youtube.com"), hostMatches(host, "youtu.be"):
		return PlatformYouTube
	case hostMatches(host, "tiktok.com"):
		return PlatformTikTok
	case hostMatches(host, "instagram.com"):
		return PlatformInstagram
	case hostMatches(host, "facebook.com"), hostMatches(host, "fb.watch"):
		return PlatformFacebook
	default:
		return PlatformOther
	}
}

func hostMatches(host, domain string) bool {
	return host == domain || strings.HasSuffix(host, "."+domain)
}

// PlatformSet is the canonical platform selection. Iteration via Ordered is
// deterministic so results aggregate in adapter order.
type PlatformSet map[Platform]struct{}

// NewPlatformSet builds a set from ps.
func NewPlatformSet(ps ...Platform) PlatformSet {
	set := make(PlatformSet, len(ps))
	for _, p := range ps {
		set[p] = struct{}{}
	}
	return set
}

// Has reports membership.
func (s PlatformSet) Has(p Platform) bool {
	_, ok := s[p]
	return ok
}

// Ordered returns the members with collectable platforms first in
// CollectablePlatforms order, followed by any others sorted by name.
func (s PlatformSet) Ordered() []Platform {
	out := make([]Platform, 0, len(s))
	for _, p := range CollectablePlatforms {
		if s.Has(p) {
			out = append(out, p)
		}
	}

	var rest []Platform
	for p := range s {
		if !p.IsCollectable() {
			rest = append(rest, p)
		}
	}
	slices.Sort(rest)

	return append(out, rest...)
}

package domain

import (
	"fmt"
	"time"
	"unicode/utf8"
)

// Collection option bounds.
const (
	DefaultMaxResults = 10
	MaxMaxResults     = 50
	MaxKeywordLength  = 100
)

// DateFilter restricts results by publish time. Zero values are open bounds.
type DateFilter struct {
	PublishedAfter  time.Time `json:"publishedAfter"`
	PublishedBefore time.Time `json:"publishedBefore"`
}

// IsZero reports an unrestricted filter.
func (f DateFilter) IsZero() bool {
	return f.PublishedAfter.IsZero() && f.PublishedBefore.IsZero()
}

// Allows reports whether publishedAt falls inside the filter. Records
// without a publish time are kept.
func (f DateFilter) Allows(publishedAt *time.Time) bool {
	if publishedAt == nil {
		return true
	}
	if !f.PublishedAfter.IsZero() && publishedAt.Before(f.PublishedAfter) {
		return false
	}
	if !f.PublishedBefore.IsZero() && publishedAt.After(f.PublishedBefore) {
		return false
	}
	return true
}

// CollectOptions is the caller-facing option bag. Platforms and the include
// flags are two spellings of the same selection; Resolve merges them.
type CollectOptions struct {
	MaxResults       int         `json:"maxResults"`
	Platforms        []Platform  `json:"platforms,omitempty"`
	IncludeYouTube   bool        `json:"includeYouTube"`
	IncludeTikTok    bool        `json:"includeTikTok"`
	IncludeInstagram bool        `json:"includeInstagram"`
	DateFilter       *DateFilter `json:"dateFilter,omitempty"`
}

// SearchFilters is what an adapter receives.
type SearchFilters struct {
	MaxResults int
	DateFilter DateFilter
}

// ResolvedOptions is CollectOptions after validation and canonicalization.
type ResolvedOptions struct {
	Platforms PlatformSet
	Filters   SearchFilters
}

// Resolve validates keyword and options. An explicit platform list wins;
// otherwise the include flags are used; with neither, every collectable
// platform is selected.
func (o CollectOptions) Resolve(keyword string) (ResolvedOptions, error) {
	if n := utf8.RuneCountInString(keyword); n < 1 || n > MaxKeywordLength {
		return ResolvedOptions{}, Errorf(KindValidation, "collect",
			"keyword must be 1..%d characters, got %d", MaxKeywordLength, n)
	}

	maxResults := o.MaxResults
	if maxResults == 0 {
		maxResults = DefaultMaxResults
	}
	if maxResults < 1 || maxResults > MaxMaxResults {
		return ResolvedOptions{}, Errorf(KindValidation, "collect",
			"maxResults must be 1..%d, got %d", MaxMaxResults, maxResults)
	}

	var set PlatformSet
	switch {
	case len(o.Platforms) > 0:
		set = NewPlatformSet(o.Platforms...)
	case o.IncludeYouTube || o.IncludeTikTok || o.IncludeInstagram:
		set = NewPlatformSet()
		if o.IncludeYouTube {
			set[PlatformYouTube] = struct{}{}
		}
		if o.IncludeTikTok {
			set[PlatformTikTok] = struct{}{}
		}
		if o.IncludeInstagram {
			set[PlatformInstagram] = struct{}{}
		}
	default:
		set = NewPlatformSet(CollectablePlatforms...)
	}

	filters := SearchFilters{MaxResults: maxResults}
	if o.DateFilter != nil {
		if !o.DateFilter.PublishedAfter.IsZero() && !o.DateFilter.PublishedBefore.IsZero() &&
			o.DateFilter.PublishedAfter.After(o.DateFilter.PublishedBefore) {
			return ResolvedOptions{}, NewError(KindValidation, "collect",
				fmt.Errorf("dateFilter.publishedAfter is after publishedBefore"))
		}
		filters.DateFilter = *o.DateFilter
	}

	return ResolvedOptions{Platforms: set, Filters: filters}, nil
}

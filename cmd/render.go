package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/sammy0329/samyang-rnd-ai-agent-sub000/internal/domain"
)

const (
	titleColumnWidth = 48
	urlColumnWidth   = 56
	valueColumnWidth = 80
)

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.Style().Format.Footer = text.FormatDefault
	return t
}

// renderCollection prints videos, the per-platform breakdown and any
// platform failures.
func renderCollection(w io.Writer, r *domain.TrendCollectionResult) {
	t := newTable(w)
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 3, WidthMax: titleColumnWidth},
		{Number: 6, WidthMax: urlColumnWidth},
		{Number: 4, Align: text.AlignRight},
	})
	t.AppendHeader(table.Row{"#", "Platform", "Title", "Views", "Creator", "URL"})

	for i, v := range r.Videos {
		t.AppendRow(table.Row{
			i + 1,
			v.Platform,
			oneLine(v.Title),
			formatCount(v.ViewCount),
			deref(v.CreatorName),
			v.VideoURL,
		})
	}

	breakdown := make([]string, 0, len(r.Breakdown))
	for _, p := range domain.CollectablePlatforms {
		if n, ok := r.Breakdown[p]; ok {
			breakdown = append(breakdown, fmt.Sprintf("%s %d", p, n))
		}
	}
	t.AppendFooter(table.Row{"Total", r.TotalVideos, "Keyword: " + r.Keyword, "", "", strings.Join(breakdown, ", ")})

	fmt.Fprintf(w, "\nCollected Videos:\n")
	t.Render()

	if len(r.Errors) == 0 {
		return
	}

	et := newTable(w)
	et.AppendHeader(table.Row{"Platform", "Kind", "Error", "Hint"})
	for _, e := range r.Errors {
		et.AppendRow(table.Row{e.Platform, e.Kind, e.Error, e.Hint})
	}
	fmt.Fprintf(w, "\nPlatform Errors:\n")
	et.Render()
}

// renderAnalysis prints an analysis as a field/value table.
func renderAnalysis(w io.Writer, a *domain.AnalysisResult) {
	t := newTable(w)
	t.SetColumnConfigs([]table.ColumnConfig{{Number: 2, WidthMax: valueColumnWidth}})
	t.AppendHeader(table.Row{"Field", "Value"})
	t.AppendRows([]table.Row{
		{"Trend", a.TrendName},
		{"Platform", a.Platform},
		{"Country", a.Country},
		{"Viral score", a.ViralScore},
		{"Brand relevance", a.BrandRelevance},
		{"Format", a.FormatType},
		{"Hook pattern", a.HookPattern},
		{"Visual pattern", a.VisualPattern},
		{"Music pattern", a.MusicPattern},
		{"Products", strings.Join(a.RecommendedProducts, ", ")},
		{"Audience", a.TargetAudience},
		{"Risks", strings.Join(a.Risks, "; ")},
	})

	fmt.Fprintf(w, "\nTrend Analysis:\n")
	t.Render()
}

// renderHooks prints drafts and failures in request order.
func renderHooks(w io.Writer, drafts []*domain.HookDraft, errs []error) {
	t := newTable(w)
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, WidthMax: titleColumnWidth},
		{Number: 3, WidthMax: valueColumnWidth},
	})
	t.AppendHeader(table.Row{"#", "Hook", "Script", "Hashtags"})
	for i, d := range drafts {
		if d == nil {
			t.AppendRow(table.Row{i + 1, "failed: " + errs[i].Error(), "", ""})
			continue
		}
		t.AppendRow(table.Row{i + 1, d.Hook, oneLine(d.Script), strings.Join(d.Hashtags, " ")})
	}

	fmt.Fprintf(w, "\nHook Drafts:\n")
	t.Render()
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func formatCount(n *int64) string {
	if n == nil {
		return "-"
	}
	return fmt.Sprintf("%d", *n)
}

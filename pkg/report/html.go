package report

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/netprof/netprof/pkg/diff"
	"github.com/netprof/netprof/pkg/profile"
	"github.com/netprof/netprof/pkg/snapshot"
	"github.com/netprof/netprof/pkg/store"
	"github.com/netprof/netprof/pkg/util"
)

//go:embed templates
var templatesFS embed.FS

var reportTemplate = template.Must(
	template.New("report.html.tmpl").Funcs(templateFuncs).ParseFS(templatesFS, "templates/report.html.tmpl"))

var templateFuncs = template.FuncMap{
	"signed": func(v int64) string {
		if v > 0 {
			return fmt.Sprintf("+%d", v)
		}
		return fmt.Sprintf("%d", v)
	},
}

type rankedRow struct {
	Rank       int
	MetricID   int
	MetricName string
	Diff       int64
	Bar        template.CSS
	Down       bool
}

type ifaceView struct {
	Iface    int
	NonZero  int
	NotShown int
	Top      []rankedRow
}

type importantRow struct {
	ID    int
	Name  string
	Diffs []int64
}

type groupView struct {
	Key         string
	Description string
	Records     []snapshot.Record
}

type htmlData struct {
	Generated    string
	TotalNonZero int
	GridSize     int
	MetricCount  int
	Interfaces   []int
	PerIface     []ifaceView
	Important    []importantRow
	Groups       []groupView
}

// WriteHTML renders s as a self-contained HTML page at path. Groups select
// which collected counter groups get a detail table, in order. The file is
// replaced atomically.
func WriteHTML(path string, s *diff.Summary, groups []profile.Group, now time.Time) error {
	err := store.WriteAtomic(path, func(w io.Writer) error {
		return RenderHTML(w, s, groups, now)
	})
	if err != nil {
		return fmt.Errorf("writing HTML report: %w", err)
	}
	util.WithPath(path).Info("HTML report written")
	return nil
}

// RenderHTML writes the HTML page for s to w.
func RenderHTML(w io.Writer, s *diff.Summary, groups []profile.Group, now time.Time) error {
	return reportTemplate.Execute(w, buildView(s, groups, now))
}

func buildView(s *diff.Summary, groups []profile.Group, now time.Time) htmlData {
	data := htmlData{
		Generated:    now.Format("2006-01-02 15:04:05"),
		TotalNonZero: s.TotalNonZero,
		GridSize:     s.GridSize(),
		MetricCount:  s.MetricCount,
		Interfaces:   s.Interfaces(),
	}

	for _, iface := range data.Interfaces {
		top := s.TopPerIface[iface]
		var peak int64
		for _, e := range top {
			if a := abs(e.Diff); a > peak {
				peak = a
			}
		}
		view := ifaceView{Iface: iface, NonZero: s.NonZeroPerIface[iface], NotShown: s.NotShown(iface)}
		for i, e := range top {
			pct := 0.0
			if peak > 0 {
				pct = float64(abs(e.Diff)) / float64(peak) * 100
			}
			view.Top = append(view.Top, rankedRow{
				Rank:       i + 1,
				MetricID:   e.MetricID,
				MetricName: e.MetricName,
				Diff:       e.Diff,
				Bar:        template.CSS(fmt.Sprintf("width: %.1f%%", pct)),
				Down:       e.Diff < 0,
			})
		}
		data.PerIface = append(data.PerIface, view)
	}

	for _, id := range s.ImportantIDs() {
		m := s.ImportantMetrics[id]
		row := importantRow{ID: id, Name: m.MetricName}
		for _, iface := range data.Interfaces {
			row.Diffs = append(row.Diffs, m.Diffs[iface])
		}
		data.Important = append(data.Important, row)
	}

	for _, g := range groups {
		view := groupView{Key: g.Key, Description: g.Description}
		for _, r := range s.Collected {
			if r.Group == g.Key {
				view.Records = append(view.Records, r)
			}
		}
		data.Groups = append(data.Groups, view)
	}
	return data
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

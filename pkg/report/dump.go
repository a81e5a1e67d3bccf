// Package report renders diff summaries for people: a console dump and a
// self-contained HTML page.
package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/netprof/netprof/pkg/cli"
	"github.com/netprof/netprof/pkg/diff"
)

// Dump writes a plain-text rendering of s.
func Dump(w io.Writer, s *diff.Summary) {
	fmt.Fprintf(w, "\n%s %d\n\n", cli.Bold("Total non-zero diffs:"), s.TotalNonZero)

	fmt.Fprintln(w, "Non-zero diffs by interface:")
	for _, iface := range s.Interfaces() {
		fmt.Fprintf(w, "  %s %d\n", cli.DotPad(fmt.Sprintf("Interface %d", iface), 16), s.NonZeroPerIface[iface])
	}
	fmt.Fprintln(w)

	for _, iface := range s.Interfaces() {
		top := s.TopPerIface[iface]
		fmt.Fprintln(w, cli.Bold(fmt.Sprintf("Top %d diffs for Interface %d:", len(top), iface)))
		t := cli.NewTableTo(w, "RANK", "METRIC ID", "METRIC NAME", "DIFFERENCE")
		for rank, e := range top {
			t.Row(strconv.Itoa(rank+1), strconv.Itoa(e.MetricID), e.MetricName, cli.Signed(e.Diff))
		}
		t.Flush()

		notShown := s.NotShown(iface)
		line := fmt.Sprintf("Total non-zero diffs not shown in Interface %d: %d", iface, notShown)
		if notShown > 0 {
			line = cli.Yellow(line)
		}
		fmt.Fprintf(w, "%s\n\n", line)
	}

	ids := s.ImportantIDs()
	if len(ids) == 0 {
		return
	}
	fmt.Fprintln(w, cli.Bold("Important Metrics (diffs by interface):"))
	headers := []string{"METRIC ID", "METRIC NAME"}
	for _, iface := range s.Interfaces() {
		headers = append(headers, fmt.Sprintf("IFACE%d", iface))
	}
	t := cli.NewTableTo(w, headers...)
	for _, id := range ids {
		m := s.ImportantMetrics[id]
		row := []string{strconv.Itoa(id), m.MetricName}
		for _, iface := range s.Interfaces() {
			row = append(row, strconv.FormatInt(m.Diffs[iface], 10))
		}
		t.Row(row...)
	}
	t.Flush()
}

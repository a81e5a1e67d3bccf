package cli

import (
	"bytes"
	"testing"
)

func TestTable_Output(t *testing.T) {
	var buf bytes.Buffer
	tbl := NewTableTo(&buf, "RANK", "METRIC")
	tbl.Row("1", "hni_rx_ok")
	tbl.Row("20", "atu")
	tbl.Flush()

	want := "RANK  METRIC\n" +
		"----  ------\n" +
		"1     hni_rx_ok\n" +
		"20    atu\n"
	if got := buf.String(); got != want {
		t.Errorf("table output:\n%s\nwant:\n%s", got, want)
	}
}

func TestTable_Prefix(t *testing.T) {
	var buf bytes.Buffer
	tbl := NewTableTo(&buf, "A", "B").WithPrefix("  ")
	tbl.Row("x", "y")
	tbl.Flush()

	want := "  A  B\n  -  -\n  x  y\n"
	if got := buf.String(); got != want {
		t.Errorf("prefixed output = %q, want %q", got, want)
	}
}

func TestTable_EmptyPrintsNothing(t *testing.T) {
	var buf bytes.Buffer
	tbl := NewTableTo(&buf, "A", "B")
	tbl.Flush()
	if buf.Len() != 0 {
		t.Errorf("empty table wrote %q", buf.String())
	}
}

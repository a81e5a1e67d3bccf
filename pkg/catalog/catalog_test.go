package catalog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netprof/netprof/pkg/util"
)

func TestParseMetricName(t *testing.T) {
	cases := []struct {
		raw  string
		want string
		ok   bool
	}{
		{"17  C_CNTR_IXE_RX_ERR  ixe_rx_err", "ixe_rx_err", true},
		{"CounterA", "CounterA", true},
		{"  padded\t", "padded", true},
		{"   ", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, ok := ParseMetricName(tc.raw)
		assert.Equal(t, tc.want, got, tc.raw)
		assert.Equal(t, tc.ok, ok, tc.raw)
	}
}

func TestParse(t *testing.T) {
	c, err := Parse(strings.NewReader("1 a CounterA\n2 b CounterB\n"))
	require.NoError(t, err)
	assert.Equal(t, Catalog{"CounterA", "CounterB"}, c)
	assert.Equal(t, 2, c.Len())

	name, ok := c.Name(2)
	assert.True(t, ok)
	assert.Equal(t, "CounterB", name)

	_, ok = c.Name(0)
	assert.False(t, ok)
	_, ok = c.Name(3)
	assert.False(t, ok)
}

func TestParse_BlankLine(t *testing.T) {
	_, err := Parse(strings.NewReader("CounterA\n\nCounterB\n"))
	require.Error(t, err)
	assert.True(t, util.IsInvalidInput(err))
	assert.Contains(t, err.Error(), "line 2")
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metrics.txt")
	require.NoError(t, os.WriteFile(path, []byte("x CounterA\ny CounterB"), 0644))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Catalog{"CounterA", "CounterB"}, c)

	_, err = Load(filepath.Join(t.TempDir(), "nope.txt"))
	require.Error(t, err)
}

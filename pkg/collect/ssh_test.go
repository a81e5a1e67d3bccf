package collect

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netprof/netprof/pkg/snapshot"
	"github.com/netprof/netprof/pkg/util"
)

// fakeRemote answers the commands SSHSource sends from an in-memory tree.
type fakeRemote struct {
	dirs  map[string][]string          // directory -> entry names
	files map[string]map[string]string // telemetry directory -> file contents

	mu    sync.Mutex
	calls []string
}

func quotedArg(cmd string) string {
	start := strings.Index(cmd, "'")
	end := strings.Index(cmd[start+1:], "'")
	return cmd[start+1 : start+1+end]
}

func (f *fakeRemote) Run(_ context.Context, cmd string) ([]byte, error) {
	f.mu.Lock()
	f.calls = append(f.calls, cmd)
	f.mu.Unlock()

	p := quotedArg(cmd)
	switch {
	case strings.HasPrefix(cmd, "if [ -d "):
		if _, ok := f.dirs[p]; ok {
			return []byte("d\n"), nil
		}
		if _, ok := f.files[p]; ok {
			return []byte("d\n"), nil
		}
		return []byte("n\n"), nil
	case strings.HasPrefix(cmd, "ls -1A -- "):
		return []byte(strings.Join(f.dirs[p], "\n") + "\n"), nil
	case strings.HasPrefix(cmd, "cd "):
		files, ok := f.files[p]
		if !ok {
			return nil, fmt.Errorf("cd: %s: No such file or directory", p)
		}
		var b strings.Builder
		for name, content := range files {
			b.WriteString(name + "\x00" + content + "\x00")
		}
		return []byte(b.String()), nil
	}
	return nil, fmt.Errorf("unexpected command %q", cmd)
}

func (f *fakeRemote) Close() error { return nil }

func (f *fakeRemote) count(prefix string) int {
	n := 0
	for _, c := range f.calls {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}

func TestSSHSource_Collect(t *testing.T) {
	remote := &fakeRemote{
		dirs: map[string][]string{
			"/sys/class/cxi": {"cxi0", "cxi1"},
		},
		files: map[string]map[string]string{
			"/sys/class/cxi/cxi0/device/telemetry": {"b": "2@1700000000\n", "a": "1@1700000000\n"},
			"/sys/class/cxi/cxi1/device/telemetry": {"a": "10@1700000000\n"},
		},
	}
	src := &SSHSource{runner: remote}

	records, err := New(src, snapshot.NewNormalizer(nil), Options{}).Collect(context.Background(), "/sys/class/cxi/")
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "a", records[0].CounterName)
	assert.Equal(t, "b", records[1].CounterName)
	assert.Equal(t, 2, records[1].SequenceID)
	assert.Equal(t, 2, records[2].Interface)
	assert.Equal(t, int64(10), records[2].Value)

	// one dump per telemetry directory
	assert.Equal(t, 2, remote.count("cd "))
	assert.Equal(t, 1, remote.count("ls "))
}

func TestSSHSource_IsDirMissing(t *testing.T) {
	src := &SSHSource{runner: &fakeRemote{}}
	_, err := src.IsDir(context.Background(), "/nope")
	require.Error(t, err)
	assert.True(t, errors.Is(err, fs.ErrNotExist))

	_, err = New(src, nil, Options{}).Collect(context.Background(), "/nope")
	assert.True(t, util.IsInvalidInput(err))
}

func TestSSHSource_ReadFilesError(t *testing.T) {
	remote := &fakeRemote{
		dirs: map[string][]string{"/r": {"cxi0"}, "/r/cxi0/device/telemetry": nil},
	}
	_, err := New(&SSHSource{runner: remote}, nil, Options{}).Collect(context.Background(), "/r")
	require.Error(t, err)
	assert.False(t, util.IsInvalidInput(err))
	assert.Contains(t, err.Error(), "reading /r/cxi0/device/telemetry")
}

func TestParseDump(t *testing.T) {
	files, err := parseDump([]byte("a\x001@0\n\x00b c\x00\x00"))
	require.NoError(t, err)
	assert.Equal(t, []File{{Name: "a", Content: "1@0\n"}, {Name: "b c", Content: ""}}, files)

	files, err = parseDump(nil)
	require.NoError(t, err)
	assert.Empty(t, files)

	_, err = parseDump([]byte("a\x001@0"))
	assert.Error(t, err)
	_, err = parseDump([]byte("a\x00"))
	assert.Error(t, err)
}

func TestParseListing(t *testing.T) {
	names := parseListing([]byte("cxi0\r\ncxi1\n\ncxi10\n"))
	sort.Strings(names)
	assert.Equal(t, []string{"cxi0", "cxi1", "cxi10"}, names)
	assert.Empty(t, parseListing(nil))
}

func TestShellQuote(t *testing.T) {
	assert.Equal(t, `'/sys/class/cxi'`, shellQuote("/sys/class/cxi"))
	assert.Equal(t, `'it'\''s'`, shellQuote("it's"))
}

func TestParseTarget(t *testing.T) {
	tests := []struct {
		in, user, addr string
		wantErr        bool
	}{
		{"root@node01", "root", "node01:22", false},
		{"admin@node01:2222", "admin", "node01:2222", false},
		{"root@::1", "root", "[::1]:22", false},
		{"node01", "", "", true},
		{"@node01", "", "", true},
		{"root@", "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			user, addr, err := ParseTarget(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.user, user)
			assert.Equal(t, tt.addr, addr)
		})
	}
}

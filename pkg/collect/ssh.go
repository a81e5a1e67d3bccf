package collect

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"

	"github.com/netprof/netprof/pkg/util"
)

// SSHConfig describes how to reach a remote node.
type SSHConfig struct {
	User     string
	Host     string // host or host:port
	Password string
	KeyFile  string

	// KnownHostsFile defaults to ~/.ssh/known_hosts.
	KnownHostsFile  string
	InsecureHostKey bool
	Timeout         time.Duration
}

// ParseTarget splits "user@host[:port]" into its user and address, adding
// port 22 when none is given.
func ParseTarget(target string) (user, addr string, err error) {
	user, host, ok := strings.Cut(target, "@")
	if !ok || user == "" || host == "" {
		return "", "", fmt.Errorf("SSH target %q must be user@host", target)
	}
	if _, _, err := net.SplitHostPort(host); err != nil {
		host = net.JoinHostPort(strings.Trim(host, "[]"), "22")
	}
	return user, host, nil
}

// commandRunner runs one shell command on the remote side and returns its
// standard output.
type commandRunner interface {
	Run(ctx context.Context, cmd string) ([]byte, error)
	Close() error
}

// sshRunner opens a session per command on a shared client.
type sshRunner struct {
	client *ssh.Client
}

func (r *sshRunner) Run(ctx context.Context, cmd string) ([]byte, error) {
	session, err := r.client.NewSession()
	if err != nil {
		return nil, fmt.Errorf("SSH session: %w", err)
	}
	defer session.Close()

	var stdout, stderr bytes.Buffer
	session.Stdout = &stdout
	session.Stderr = &stderr

	done := make(chan error, 1)
	go func() { done <- session.Run(cmd) }()

	select {
	case <-ctx.Done():
		session.Close()
		return nil, ctx.Err()
	case err := <-done:
		if err != nil {
			return stdout.Bytes(), fmt.Errorf("SSH exec '%s': %w: %s", cmd, err, strings.TrimSpace(stderr.String()))
		}
		return stdout.Bytes(), nil
	}
}

func (r *sshRunner) Close() error {
	return r.client.Close()
}

// SSHSource reads a counter tree on a remote node. Each directory listing is
// one remote command, and each telemetry directory is fetched with a single
// command that streams every file.
type SSHSource struct {
	runner commandRunner
}

// DialSSH connects to the node described by cfg.
func DialSSH(cfg SSHConfig) (*SSHSource, error) {
	var auth []ssh.AuthMethod
	if cfg.KeyFile != "" {
		key, err := os.ReadFile(cfg.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("reading SSH key: %w", err)
		}
		signer, err := ssh.ParsePrivateKey(key)
		if err != nil {
			return nil, fmt.Errorf("parsing SSH key %s: %w", cfg.KeyFile, err)
		}
		auth = append(auth, ssh.PublicKeys(signer))
	}
	if cfg.Password != "" {
		auth = append(auth, ssh.Password(cfg.Password))
	}
	if len(auth) == 0 {
		return nil, fmt.Errorf("SSH to %s: no password or key given", cfg.Host)
	}

	hostKey, err := hostKeyCallback(cfg)
	if err != nil {
		return nil, err
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	client, err := ssh.Dial("tcp", cfg.Host, &ssh.ClientConfig{
		User:            cfg.User,
		Auth:            auth,
		HostKeyCallback: hostKey,
		Timeout:         timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("SSH dial %s: %w", cfg.Host, err)
	}
	util.WithField("host", cfg.Host).Debug("SSH connected")
	return &SSHSource{runner: &sshRunner{client: client}}, nil
}

func hostKeyCallback(cfg SSHConfig) (ssh.HostKeyCallback, error) {
	if cfg.InsecureHostKey {
		util.WithField("host", cfg.Host).Warn("host key verification disabled")
		return ssh.InsecureIgnoreHostKey(), nil
	}
	path := cfg.KnownHostsFile
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("locating known_hosts: %w", err)
		}
		path = filepath.Join(home, ".ssh", "known_hosts")
	}
	cb, err := knownhosts.New(path)
	if err != nil {
		return nil, fmt.Errorf("loading known hosts %s: %w", path, err)
	}
	return cb, nil
}

// Close closes the SSH connection.
func (s *SSHSource) Close() error {
	return s.runner.Close()
}

// IsDir implements Source.
func (s *SSHSource) IsDir(ctx context.Context, p string) (bool, error) {
	q := shellQuote(p)
	out, err := s.runner.Run(ctx, "if [ -d "+q+" ]; then echo d; elif [ -e "+q+" ]; then echo f; else echo n; fi")
	if err != nil {
		return false, err
	}
	switch strings.TrimSpace(string(out)) {
	case "d":
		return true, nil
	case "f":
		return false, nil
	case "n":
		return false, &fs.PathError{Op: "stat", Path: p, Err: fs.ErrNotExist}
	default:
		return false, fmt.Errorf("stat %s: unexpected reply %q", p, out)
	}
}

// ReadDir implements Source.
func (s *SSHSource) ReadDir(ctx context.Context, p string) ([]string, error) {
	out, err := s.runner.Run(ctx, "ls -1A -- "+shellQuote(p))
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", p, err)
	}
	return parseListing(out), nil
}

// dumpScript prints "name\0content\0" for every regular file in the current
// directory, hidden files included.
const dumpScript = `for f in * .[!.]* ..?*; do [ -f "$f" ] || continue; printf '%s\0' "$f"; cat -- "$f" || exit 1; printf '\0'; done`

// ReadFiles implements Source.
func (s *SSHSource) ReadFiles(ctx context.Context, dir string) ([]File, error) {
	out, err := s.runner.Run(ctx, "cd "+shellQuote(dir)+" && "+dumpScript)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", dir, err)
	}
	files, err := parseDump(out)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", dir, err)
	}
	return files, nil
}

func parseListing(out []byte) []string {
	var names []string
	for _, line := range strings.Split(string(out), "\n") {
		if line = strings.TrimRight(line, "\r"); line != "" {
			names = append(names, line)
		}
	}
	return names
}

// parseDump splits the output of dumpScript into files.
func parseDump(out []byte) ([]File, error) {
	if len(out) == 0 {
		return nil, nil
	}
	parts := strings.Split(string(out), "\x00")
	// n files give 2n fields plus the empty tail after the final NUL
	if len(parts)%2 != 1 || parts[len(parts)-1] != "" {
		return nil, fmt.Errorf("truncated file dump (%d fields)", len(parts)-1)
	}
	files := make([]File, 0, len(parts)/2)
	for i := 0; i+1 < len(parts); i += 2 {
		files = append(files, File{Name: parts[i], Content: parts[i+1]})
	}
	return files, nil
}

// shellQuote wraps s in single quotes for a POSIX shell.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// Package collect reads NIC telemetry counter trees into normalized records.
//
// Two layouts are accepted:
//
//	<root>/cxi3/device/telemetry/<counter>    a single telemetry directory
//	<root>/cxi<N>/device/telemetry/<counter>  the parent of all interfaces
//
// Interface cxiN is reported as interface N+1.
package collect

import (
	"context"
	"path"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/netprof/netprof/pkg/snapshot"
	"github.com/netprof/netprof/pkg/util"
)

const (
	// DefaultWorkers bounds concurrent interface reads.
	DefaultWorkers = 8

	telemetryDir = "telemetry"
)

// Options tune a Collector.
type Options struct {
	// InterfacePrefix is the interface directory name before its number.
	InterfacePrefix string
	Workers         int
}

// Collector walks a Source and normalizes every counter file it finds.
type Collector struct {
	src     Source
	norm    *snapshot.Normalizer
	prefix  string
	pattern *regexp.Regexp
	workers int
}

// New creates a collector reading src.
func New(src Source, norm *snapshot.Normalizer, opts Options) *Collector {
	if opts.InterfacePrefix == "" {
		opts.InterfacePrefix = "cxi"
	}
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	if norm == nil {
		norm = snapshot.NewNormalizer(nil)
	}
	return &Collector{
		src:     src,
		norm:    norm,
		prefix:  opts.InterfacePrefix,
		pattern: regexp.MustCompile(`^` + regexp.QuoteMeta(opts.InterfacePrefix) + `(\d+)$`),
		workers: opts.Workers,
	}
}

type ifaceDir struct {
	name  string
	iface int
}

// interfaceNumber returns N+1 for an interface directory named <prefix>N.
func (c *Collector) interfaceNumber(name string) (int, bool) {
	m := c.pattern.FindStringSubmatch(name)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n + 1, true
}

// Collect reads every counter under root. Records come back grouped by
// interface in ascending order, files in name order within each interface.
func (c *Collector) Collect(ctx context.Context, root string) ([]snapshot.Record, error) {
	root = path.Clean(filepath.ToSlash(root))

	isDir, err := c.src.IsDir(ctx, root)
	if err != nil && !isNotExist(err) {
		return nil, err
	}
	if !isDir {
		return nil, util.NewInvalidInputError("collect", root, "does not exist or is not a directory")
	}

	grandparent := path.Base(path.Dir(path.Dir(root)))
	if path.Base(root) == telemetryDir {
		if iface, ok := c.interfaceNumber(grandparent); ok {
			return c.collectSingle(ctx, root, iface)
		}
	}
	return c.collectAll(ctx, root)
}

func (c *Collector) collectSingle(ctx context.Context, dir string, iface int) ([]snapshot.Record, error) {
	files, err := c.src.ReadFiles(ctx, dir)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, util.NewInvalidInputError("collect", dir, "telemetry directory contains no files")
	}
	util.WithInterface(iface).WithField("dir", dir).Infof("collecting %d counter files", len(files))
	return c.normalize(files, iface), nil
}

func (c *Collector) collectAll(ctx context.Context, root string) ([]snapshot.Record, error) {
	names, err := c.src.ReadDir(ctx, root)
	if err != nil {
		return nil, err
	}

	var dirs []ifaceDir
	for _, name := range names {
		if iface, ok := c.interfaceNumber(name); ok {
			dirs = append(dirs, ifaceDir{name: name, iface: iface})
		}
	}
	if len(dirs) == 0 {
		return nil, util.InvalidInputf("collect", root,
			"neither a telemetry directory nor a parent of %s<N> interfaces", c.prefix)
	}
	sort.SliceStable(dirs, func(i, j int) bool {
		if dirs[i].iface != dirs[j].iface {
			return dirs[i].iface < dirs[j].iface
		}
		return dirs[i].name < dirs[j].name
	})

	results := make([][]snapshot.Record, len(dirs))
	found := make([]bool, len(dirs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)
	for i, d := range dirs {
		i, d := i, d
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			dir := path.Join(root, d.name, "device", telemetryDir)
			log := util.WithInterface(d.iface).WithField("dir", dir)

			isDir, err := c.src.IsDir(gctx, dir)
			if err != nil && !isNotExist(err) {
				return err
			}
			if !isDir {
				log.Debug("no telemetry directory, skipping")
				return nil
			}
			files, err := c.src.ReadFiles(gctx, dir)
			if err != nil {
				return err
			}
			if len(files) == 0 {
				log.Warn("telemetry directory is empty, skipping")
				return nil
			}
			log.Infof("collecting %d counter files", len(files))
			results[i] = c.normalize(files, d.iface)
			found[i] = true
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var records []snapshot.Record
	anyFound := false
	for i := range dirs {
		if found[i] {
			anyFound = true
			records = append(records, results[i]...)
		}
	}
	if !anyFound {
		return nil, util.InvalidInputf("collect", root,
			"no %s<N>/device/telemetry directory with counter files", c.prefix)
	}
	if records == nil {
		records = []snapshot.Record{}
	}
	return records, nil
}

// normalize turns files into records. sequence_id is the file's 1-based
// position in name order, so skipped files leave gaps.
func (c *Collector) normalize(files []File, iface int) []snapshot.Record {
	sortFiles(files)
	records := make([]snapshot.Record, 0, len(files))
	for i, f := range files {
		rec, ok := c.norm.Normalize(f.Content, f.Name, iface, i+1)
		if !ok {
			util.WithInterface(iface).WithField("counter", f.Name).Debug("skipping unparsable counter")
			continue
		}
		records = append(records, rec)
	}
	return records
}

// Package anvil imports worlds saved in the Anvil region format.
package anvil

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/Tnze/go-mc/nbt"
	"golang.org/x/sync/errgroup"

	"github.com/astei/slimeworld/internal/slime"
)

type Options struct {
	// Version is the world version recorded in the snapshot.
	Version slime.WorldVersion
	Logger  *slog.Logger
}

// Import reads every region file of an Anvil world into a snapshot. dir may
// be the world directory or its region directory. Empty chunks are left out.
func Import(ctx context.Context, dir string, opts Options) (*slime.Snapshot, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	version := opts.Version
	if version == 0 {
		version = slime.V1_8
	}

	files, err := regionFiles(dir)
	if err != nil {
		return nil, err
	}
	logger.Debug("discovered region files", "dir", dir, "count", len(files))

	snap := slime.NewSnapshot(version)
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for _, path := range files {
		path := path
		g.Go(func() error {
			columns, err := readRegion(ctx, path, logger)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			for _, c := range columns {
				snap.Put(c)
			}
			return nil
		})
	}
	if err = g.Wait(); err != nil {
		return nil, err
	}
	logger.Info("imported anvil world", "dir", dir, "regions", len(files), "columns", len(snap.Columns))
	return snap, nil
}

func regionFiles(dir string) ([]string, error) {
	if info, err := os.Stat(filepath.Join(dir, "region")); err == nil && info.IsDir() {
		dir = filepath.Join(dir, "region")
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".mca") {
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("anvil: no region files in %s: %w", dir, fs.ErrNotExist)
	}
	sort.Strings(files)
	return files, nil
}

func readRegion(ctx context.Context, path string, logger *slog.Logger) (columns []*slime.Column, err error) {
	file, err := os.Open(path)
	if err != nil {
		return
	}
	reader, err := NewRegionReader(file)
	if err != nil {
		file.Close()
		return
	}
	defer reader.Close()

	for z := 0; z < regionSize; z++ {
		for x := 0; x < regionSize; x++ {
			if err = ctx.Err(); err != nil {
				return nil, err
			}
			if !reader.ChunkExists(x, z) {
				continue
			}
			column, err := readChunk(reader, x, z)
			if err != nil {
				return nil, fmt.Errorf("anvil: chunk %d,%d in %s: %w", x, z, reader.Name, err)
			}
			if column == nil {
				continue
			}
			logger.Debug("read chunk", "x", column.X, "z", column.Z, "sectionMask", column.SectionMask(),
				"tiles", len(column.Tiles), "mobiles", len(column.Mobiles))
			columns = append(columns, column)
		}
	}
	return columns, nil
}

// readChunk returns nil for chunks without any non-air section.
func readChunk(reader *RegionReader, x, z int) (*slime.Column, error) {
	stream, err := reader.ReadChunk(x, z)
	if err != nil {
		return nil, err
	}
	var root chunkRoot
	if _, err = nbt.NewDecoder(stream).Decode(&root); err != nil {
		return nil, fmt.Errorf("deserializing: %w", err)
	}
	if !root.Level.clean() {
		return nil, nil
	}
	if err = root.Level.validate(); err != nil {
		return nil, err
	}
	return root.Level.column()
}

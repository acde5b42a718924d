package sync

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zstd"
	"go.uber.org/zap"

	"github.com/goodnatureofminers/hiveindexer-backend/internal/hive/model"
)

const (
	checkpointExt     = ".json.lst"
	checkpointZstdExt = ".json.lst.zst"

	maxCheckpointLine = 64 << 20
)

// checkpoint is a file of blocks, one JSON block per line, ending at height.
type checkpoint struct {
	height uint64
	path   string
}

// listCheckpoints returns the checkpoint files in dir ordered by height.
func listCheckpoints(dir string) ([]checkpoint, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read checkpoints dir: %w", err)
	}

	var files []checkpoint
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !(strings.HasSuffix(name, checkpointExt) || strings.HasSuffix(name, checkpointZstdExt)) {
			continue
		}
		prefix, _, _ := strings.Cut(name, ".")
		height, err := strconv.ParseUint(prefix, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("checkpoint %s: height prefix: %w", name, err)
		}
		files = append(files, checkpoint{height: height, path: filepath.Join(dir, name)})
	}
	sort.Slice(files, func(i, j int) bool {
		return files[i].height < files[j].height
	})
	for i := 1; i < len(files); i++ {
		if files[i].height == files[i-1].height {
			return nil, fmt.Errorf("duplicate checkpoints for height %d: %s, %s", files[i].height, files[i-1].path, files[i].path)
		}
	}
	return files, nil
}

type zstdFile struct {
	*zstd.Decoder
	file *os.File
}

func (z zstdFile) Close() error {
	z.Decoder.Close()
	return z.file.Close()
}

func openCheckpoint(path string) (io.ReadCloser, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open checkpoint: %w", err)
	}
	if !strings.HasSuffix(path, checkpointZstdExt) {
		return file, nil
	}
	decoder, err := zstd.NewReader(file)
	if err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("open zstd checkpoint %s: %w", path, err)
	}
	return zstdFile{Decoder: decoder, file: file}, nil
}

// fromCheckpoints applies checkpoint files above the persisted head. Each
// file continues where the previous one ended, so lines already applied are
// skipped by position.
func (s *Service) fromCheckpoints(ctx context.Context) error {
	if s.cfg.CheckpointsDir == "" {
		return nil
	}
	files, err := listCheckpoints(s.cfg.CheckpointsDir)
	if err != nil {
		return err
	}
	head, err := s.state.HeadBlock(ctx)
	if err != nil {
		return fmt.Errorf("read head block: %w", err)
	}

	last := head.Num
	var lastRead uint64
	for _, cp := range files {
		if last < cp.height {
			if last < lastRead {
				return fmt.Errorf("checkpoint %s: head %d is below previous checkpoint end %d", cp.path, last, lastRead)
			}
			s.logger.Info("loading checkpoint", zap.String("path", cp.path), zap.Uint64("head", last))
			lines, err := s.loadCheckpoint(ctx, cp.path, last-lastRead, cp.height)
			if err != nil {
				return err
			}
			if end := lastRead + lines; end != cp.height {
				return fmt.Errorf("checkpoint %s ends at block %d, expected %d", cp.path, end, cp.height)
			}
			last = cp.height
		}
		lastRead = cp.height
	}
	return nil
}

// loadCheckpoint skips the first skip lines of path and applies the rest in
// chunks. It returns the number of lines in the file.
func (s *Service) loadCheckpoint(ctx context.Context, path string, skip, end uint64) (uint64, error) {
	r, err := openCheckpoint(path)
	if err != nil {
		return 0, err
	}
	defer func() {
		_ = r.Close()
	}()

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 1<<20), maxCheckpointLine)

	var (
		line  uint64
		chunk = make([]*model.Block, 0, s.cfg.ChunkSize)
	)
	flush := func() error {
		if len(chunk) == 0 {
			return nil
		}
		if _, err := s.processChunk(ctx, chunk, true, end); err != nil {
			return fmt.Errorf("checkpoint %s: %w", path, err)
		}
		chunk = make([]*model.Block, 0, s.cfg.ChunkSize)
		return nil
	}

	for scanner.Scan() {
		line++
		if line <= skip {
			continue
		}
		block := new(model.Block)
		if err := json.Unmarshal(scanner.Bytes(), block); err != nil {
			return 0, fmt.Errorf("checkpoint %s line %d: %w", path, line, err)
		}
		chunk = append(chunk, block)
		if len(chunk) >= s.cfg.ChunkSize {
			if err := flush(); err != nil {
				return 0, err
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return 0, fmt.Errorf("read checkpoint %s: %w", path, err)
	}
	if err := flush(); err != nil {
		return 0, err
	}
	return line, nil
}

package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"VolServe/internal/domain/models"
	drepo "VolServe/internal/domain/repository"
)

// ModelTimestampLayout is fixed width, so lexicographic order of file names
// equals chronological order.
const ModelTimestampLayout = "2006-01-02T15:04:05.000000"

const maxNameCollisions = 1000

// FileModelStore writes one immutable file per fitted model, named
// {timestamp}_{TICKER}.{ext}, and treats the lexicographically last match
// for a ticker as its latest model.
type FileModelStore struct {
	dir string
	ext string
	now func() time.Time
}

func NewFileModelStore(dir, ext string) (*FileModelStore, error) {
	if ext == "" {
		ext = "json"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: create model dir: %v", models.ErrStore, err)
	}
	return &FileModelStore{dir: dir, ext: ext, now: time.Now}, nil
}

func (s *FileModelStore) Dir() string { return s.dir }

// Save encodes m and returns the new file name (not the full path).
func (s *FileModelStore) Save(ctx context.Context, m *models.FittedModel, ticker string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	t, err := models.NormalizeTicker(ticker)
	if err != nil {
		return "", err
	}
	body, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return "", fmt.Errorf("%w: encode model: %v", models.ErrStore, err)
	}

	ts := s.now().UTC()
	for i := 0; i < maxNameCollisions; i++ {
		name := fmt.Sprintf("%s_%s.%s", ts.Format(ModelTimestampLayout), t, s.ext)
		path := filepath.Join(s.dir, name)

		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, fs.ErrExist) {
			ts = ts.Add(time.Microsecond)
			continue
		}
		if err != nil {
			return "", fmt.Errorf("%w: create %s: %v", models.ErrStore, name, err)
		}
		if _, err := f.Write(body); err != nil {
			f.Close()
			os.Remove(path)
			return "", fmt.Errorf("%w: write %s: %v", models.ErrStore, name, err)
		}
		if err := f.Close(); err != nil {
			os.Remove(path)
			return "", fmt.Errorf("%w: close %s: %v", models.ErrStore, name, err)
		}
		return name, nil
	}
	return "", fmt.Errorf("%w: no free file name for %s after %d attempts", models.ErrStore, t, maxNameCollisions)
}

// LatestPath resolves the newest model file for ticker without decoding it.
func (s *FileModelStore) LatestPath(ctx context.Context, ticker string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	t, err := models.NormalizeTicker(ticker)
	if err != nil {
		return "", err
	}
	// Match names only so metacharacters in the directory path stay literal.
	pattern := "*_" + t + "." + s.ext
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return "", fmt.Errorf("%w: list %s: %v", models.ErrStore, s.dir, err)
	}
	var matches []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ok, err := filepath.Match(pattern, e.Name())
		if err != nil {
			return "", fmt.Errorf("%w: match: %v", models.ErrStore, err)
		}
		if ok {
			matches = append(matches, e.Name())
		}
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("%w: no model file for %s in %s", models.ErrModelNotFound, t, s.dir)
	}
	sort.Strings(matches)
	return filepath.Join(s.dir, matches[len(matches)-1]), nil
}

func (s *FileModelStore) Load(ctx context.Context, path string) (*models.FittedModel, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", models.ErrModelNotFound, filepath.Base(path))
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", models.ErrStore, filepath.Base(path), err)
	}
	var m models.FittedModel
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", models.ErrStore, filepath.Base(path), err)
	}
	return &m, nil
}

func (s *FileModelStore) LoadLatest(ctx context.Context, ticker string) (*models.FittedModel, error) {
	path, err := s.LatestPath(ctx, ticker)
	if err != nil {
		return nil, err
	}
	return s.Load(ctx, path)
}

var _ drepo.ModelStore = (*FileModelStore)(nil)

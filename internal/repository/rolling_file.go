package repository

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/aionanalytics/Aion-sub001/internal/domain/models"
	"github.com/aionanalytics/Aion-sub001/internal/domain/repository"
	"github.com/aionanalytics/Aion-sub001/pkg/logger"
	"github.com/aionanalytics/Aion-sub001/pkg/util"
)

// FileRollingStore keeps the rolling map in one JSON file, gzip-compressed when the
// path ends in .gz.
type FileRollingStore struct {
	path          string
	historyWindow int
	log           *logger.Logger
	now           func() time.Time
}

// NewFileRollingStore creates a file-backed rolling store.
func NewFileRollingStore(path string, historyWindow int, log *logger.Logger) repository.RollingStore {
	return &FileRollingStore{
		path:          path,
		historyWindow: historyWindow,
		log:           log.With(logger.Component("rolling_file")),
		now:           time.Now,
	}
}

func (s *FileRollingStore) Location() string {
	return s.path
}

// Read returns the stored map, or an empty one when the file is absent or corrupt. A
// corrupt file is moved aside to <path>.corrupt-<timestamp> so the next Save does not
// overwrite what collaborators may still recover from it.
func (s *FileRollingStore) Read(_ context.Context) *models.Rolling {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.log.Warn("rolling read failed", logger.String("path", s.path), logger.Error(err))
		}
		return models.NewRolling()
	}
	r, err := decodeRolling(data)
	if err != nil {
		aside := fmt.Sprintf("%s.corrupt-%s", s.path, s.now().UTC().Format("20060102T150405Z"))
		if rerr := os.Rename(s.path, aside); rerr != nil {
			s.log.Error("rolling file corrupt, move aside failed", logger.String("path", s.path), logger.Error(rerr))
		} else {
			s.log.Warn("rolling file corrupt, starting empty",
				logger.String("path", s.path),
				logger.String("moved_to", aside),
				logger.Error(err),
			)
		}
		return models.NewRolling()
	}
	s.log.Debug("rolling loaded", logger.String("path", s.path), logger.Int("symbols", len(r.Symbols)))
	return r
}

// Save writes the whole map through a temp file and rename.
func (s *FileRollingStore) Save(_ context.Context, r *models.Rolling) error {
	if r == nil {
		return fmt.Errorf("save rolling: nil map")
	}
	data, err := encodeRolling(r, s.historyWindow, strings.HasSuffix(s.path, ".gz"))
	if err != nil {
		return err
	}
	if err := util.WriteFileAtomic(s.path, data, 0o644); err != nil {
		return fmt.Errorf("save rolling %s: %w", s.path, err)
	}
	s.log.Info("rolling saved", logger.String("path", s.path), logger.Int("symbols", len(r.Symbols)))
	return nil
}

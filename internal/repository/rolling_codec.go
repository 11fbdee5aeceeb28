package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/klauspost/compress/gzip"

	"github.com/aionanalytics/Aion-sub001/internal/domain/models"
)

var gzipMagic = []byte{0x1f, 0x8b}

// decodeRolling parses a stored rolling map. Gzip payloads are detected by magic bytes.
func decodeRolling(data []byte) (*models.Rolling, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return models.NewRolling(), nil
	}
	if bytes.HasPrefix(data, gzipMagic) {
		zr, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("open gzip: %w", err)
		}
		defer zr.Close()
		plain, err := io.ReadAll(zr)
		if err != nil {
			return nil, fmt.Errorf("read gzip: %w", err)
		}
		data = plain
	}
	r := models.NewRolling()
	if err := json.Unmarshal(data, r); err != nil {
		return nil, fmt.Errorf("decode rolling: %w", err)
	}
	return r, nil
}

// encodeRolling enforces the history invariant on every node and serializes r.
func encodeRolling(r *models.Rolling, historyWindow int, compress bool) ([]byte, error) {
	for _, node := range r.Symbols {
		if node != nil {
			node.History = models.NormalizeHistory(node.History, historyWindow)
		}
	}
	data, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("encode rolling: %w", err)
	}
	if !compress {
		return data, nil
	}
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(data); err != nil {
		return nil, fmt.Errorf("gzip rolling: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("gzip rolling: %w", err)
	}
	return buf.Bytes(), nil
}

// retry runs op with exponential backoff, giving up after attempts tries or when ctx ends.
func retry(ctx context.Context, attempts uint64, op func() error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 100 * time.Millisecond
	b.MaxInterval = 2 * time.Second
	return backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(b, attempts), ctx))
}

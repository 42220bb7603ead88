// Package filelog appends every upstream poll to a plain-text audit file.
//
// Each entry is the UTC poll time on one line followed by the raw response
// body (or the error) and a blank line. The file is rotated by size and is
// never read back.
package filelog

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/hamed0406/slotwatch/internal/domain"
	"github.com/hamed0406/slotwatch/internal/repo"
)

var _ repo.PollLog = (*Log)(nil)

type Log struct {
	mu sync.Mutex
	w  io.WriteCloser
}

func Open(path string) (*Log, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return &Log{w: &lumberjack.Logger{
		Filename:   path,
		MaxSize:    50, // MB
		MaxBackups: 10,
		Compress:   true,
	}}, nil
}

// NewWriter logs to w instead of a rotated file.
func NewWriter(w io.WriteCloser) *Log { return &Log{w: w} }

func (l *Log) Append(ctx context.Context, r *domain.PollRecord) error {
	at := r.PolledAt
	if at.IsZero() {
		at = time.Now().UTC()
	}
	body := r.Body
	if r.Error != "" {
		body = fmt.Sprintf("%s ERROR %s: %s", r.Location, r.Error, r.Body)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	_, err := fmt.Fprintf(l.w, "%s\n%s\n\n", at.UTC().Format("2006-01-02 15:04:05.000000"), body)
	return err
}

func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Close()
}

package repo_test

import (
	"context"
	"errors"
	"testing"

	"github.com/hamed0406/slotwatch/internal/domain"
	"github.com/hamed0406/slotwatch/internal/repo"
	"github.com/hamed0406/slotwatch/internal/repo/filelog"
	"github.com/hamed0406/slotwatch/internal/repo/memory"
	pg "github.com/hamed0406/slotwatch/internal/repo/postgres"
)

// Compile-time interface satisfaction checks.
// Using external test package avoids import cycle.
func TestInterfaceSatisfaction(t *testing.T) {
	var _ repo.StateStore = memory.New()
	var _ repo.PollLog = memory.New()
	var _ repo.PollSnapshot = memory.New()

	var _ repo.PollLog = (*pg.Store)(nil)
	var _ repo.PollLog = (*filelog.Log)(nil)
}

type failingLog struct{ n int }

func (f *failingLog) Append(context.Context, *domain.PollRecord) error {
	f.n++
	return errors.New("disk full")
}

func TestMultiLog_TriesEveryLog(t *testing.T) {
	bad := &failingLog{}
	mem := memory.New()
	ml := repo.MultiLog{bad, nil, mem}

	err := ml.Append(context.Background(), &domain.PollRecord{Location: "SEA"})
	if err == nil {
		t.Fatalf("expected error from failing log")
	}
	latest, _ := mem.Latest(context.Background())
	if bad.n != 1 || len(latest) != 1 {
		t.Fatalf("every log should see the record: bad=%d mem=%d", bad.n, len(latest))
	}
}

package cache

import (
	"context"
	"errors"
	"testing"

	"github.com/iliyamo/restaurant-table-reservation/internal/schedule"
)

func snap(pairs ...int) Snapshot {
	s := make(Snapshot, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		s[schedule.TimeOfDay(pairs[i])] = pairs[i+1]
	}
	return s
}

func TestMemoryCacheBuildsOnce(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	builds := 0
	build := func() (Snapshot, error) {
		builds++
		return snap(1140, 12, 1170, 12), nil
	}

	first, err := c.GetOrBuild(ctx, "2026-08-24", build)
	if err != nil {
		t.Fatalf("GetOrBuild: %v", err)
	}
	second, err := c.GetOrBuild(ctx, "2026-08-24", build)
	if err != nil {
		t.Fatalf("GetOrBuild: %v", err)
	}
	if builds != 1 {
		t.Errorf("build ran %d times, want 1", builds)
	}
	if len(second) != len(first) || second[1140] != 12 {
		t.Errorf("cached snapshot differs: %v vs %v", second, first)
	}
}

func TestMemoryCacheInvalidateForcesRebuild(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()
	date := "2026-08-24"

	builds := 0
	build := func() (Snapshot, error) {
		builds++
		return snap(1140, builds), nil
	}

	if _, err := c.GetOrBuild(ctx, date, build); err != nil {
		t.Fatalf("GetOrBuild: %v", err)
	}
	if err := c.Invalidate(ctx, date); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	after, err := c.GetOrBuild(ctx, date, build)
	if err != nil {
		t.Fatalf("GetOrBuild after invalidate: %v", err)
	}
	if builds != 2 {
		t.Errorf("build ran %d times, want 2", builds)
	}
	if after[1140] != 2 {
		t.Errorf("rebuilt snapshot not served: %v", after)
	}
}

func TestMemoryCacheInvalidateMissingDate(t *testing.T) {
	c := NewMemoryCache()
	if err := c.Invalidate(context.Background(), "2026-01-01"); err != nil {
		t.Fatalf("Invalidate on empty cache: %v", err)
	}
}

func TestMemoryCacheBuildErrorNotCached(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()
	date := "2026-08-24"

	boom := errors.New("store down")
	if _, err := c.GetOrBuild(ctx, date, func() (Snapshot, error) { return nil, boom }); !errors.Is(err, boom) {
		t.Fatalf("GetOrBuild: got %v, want build error", err)
	}
	got, err := c.GetOrBuild(ctx, date, func() (Snapshot, error) { return snap(720, 4), nil })
	if err != nil {
		t.Fatalf("GetOrBuild after failed build: %v", err)
	}
	if got[720] != 4 {
		t.Errorf("failed build was cached: %v", got)
	}
}

func TestSnapshotClone(t *testing.T) {
	orig := snap(1140, 10)
	cp := orig.Clone()
	cp[1140] = 99
	if orig[1140] != 10 {
		t.Errorf("Clone aliases the original map")
	}
}

package history

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/aleister1102/cfgswitch/internal/common"
	"github.com/aleister1102/cfgswitch/internal/monitor"
	"github.com/aleister1102/cfgswitch/internal/switcher"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := NewDB(filepath.Join(t.TempDir(), "nested", "history.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func attempt(id string, start time.Time, states []switcher.State, err error) *switcher.Attempt {
	a := &switcher.Attempt{ProfileID: id, StartedAt: start, Err: err}
	for i, s := range states {
		a.Transitions = append(a.Transitions, switcher.Transition{State: s, At: start.Add(time.Duration(i) * time.Millisecond)})
	}
	a.FinishedAt = start.Add(time.Duration(len(states)-1) * time.Millisecond)
	return a
}

func TestDB_RecordSwitch(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	start := time.UnixMilli(1_700_000_000_000)

	require.NoError(t, db.RecordSwitch(ctx, attempt("work", start,
		[]switcher.State{switcher.Requested, switcher.Validating, switcher.Writing, switcher.Committed}, nil)))
	require.NoError(t, db.RecordSwitch(ctx, attempt("missing", start.Add(time.Second),
		[]switcher.State{switcher.Requested, switcher.RolledBack}, errors.New("profile not found: 'missing'"))))

	records, err := db.RecentSwitches(ctx, 0)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "missing", records[0].ProfileID)
	assert.Equal(t, "rolled_back", records[0].State)
	assert.Equal(t, []string{"requested", "rolled_back"}, records[0].Transitions)
	assert.Equal(t, "profile not found: 'missing'", records[0].Error)

	assert.Equal(t, "work", records[1].ProfileID)
	assert.Equal(t, "committed", records[1].State)
	assert.Equal(t, []string{"requested", "validating", "writing", "committed"}, records[1].Transitions)
	assert.Empty(t, records[1].Error)
	assert.Equal(t, start.UnixMilli(), records[1].StartedAt.UnixMilli())
	assert.Equal(t, int64(3), records[1].DurationMS)

	limited, err := db.RecentSwitches(ctx, 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, "missing", limited[0].ProfileID)
}

func TestDB_RecordChangeBatch(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.RecordChangeBatch(ctx, monitor.ChangeBatch{Tick: 7}))

	batch := monitor.ChangeBatch{
		Tick: 8,
		At:   time.UnixMilli(1_700_000_000_000),
		Changes: []monitor.FileChange{
			{Path: "/cfg/settings.json", Type: monitor.Modified},
			{Path: "/cfg/work.settings.json", Type: monitor.Deleted},
		},
	}
	require.NoError(t, db.RecordChangeBatch(ctx, batch))

	events, err := db.RecentChanges(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "/cfg/work.settings.json", events[0].Path)
	assert.Equal(t, "deleted", events[0].ChangeType)
	assert.Equal(t, uint64(8), events[1].Tick)
	assert.Equal(t, "modified", events[1].ChangeType)
	assert.Equal(t, batch.At.UnixMilli(), events[1].ObservedAt.UnixMilli())
}

func TestDB_ImplementsJournal(t *testing.T) {
	var _ switcher.Journal = newTestDB(t)
}

func TestExporter_RoundTrip(t *testing.T) {
	for _, codec := range []string{"zstd", "snappy", "gzip", "none"} {
		t.Run(codec, func(t *testing.T) {
			records := []SwitchRecord{
				{
					ID:          2,
					ProfileID:   "missing",
					State:       "rolled_back",
					StartedAt:   time.UnixMilli(1_700_000_001_000),
					FinishedAt:  time.UnixMilli(1_700_000_001_002),
					DurationMS:  2,
					Transitions: []string{"requested", "rolled_back"},
					Error:       "profile not found",
				},
				{
					ID:          1,
					ProfileID:   "work",
					State:       "committed",
					StartedAt:   time.UnixMilli(1_700_000_000_000),
					FinishedAt:  time.UnixMilli(1_700_000_000_005),
					DurationMS:  5,
					Transitions: []string{"requested", "validating", "writing", "committed"},
				},
			}

			path := filepath.Join(t.TempDir(), "exports", "history.parquet")
			exporter := NewExporter(codec, zerolog.Nop())
			require.NoError(t, exporter.Export(path, records))
			assert.NoFileExists(t, path+".tmp")

			loaded, err := exporter.Load(path)
			require.NoError(t, err)
			assert.Equal(t, records, loaded)
		})
	}
}

func TestExporter_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.parquet")
	exporter := NewExporter("zstd", zerolog.Nop())
	require.NoError(t, exporter.Export(path, nil))

	loaded, err := exporter.Load(path)
	require.NoError(t, err)
	assert.Empty(t, loaded)
}

func TestExporter_LoadMissingFile(t *testing.T) {
	_, err := NewExporter("zstd", zerolog.Nop()).Load(filepath.Join(t.TempDir(), "nope.parquet"))
	assert.ErrorIs(t, err, common.ErrIO)
	assert.True(t, common.IsNotExist(err))
}

package store

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestInsertAndList(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	first, err := s.Insert(ctx, "hello", "hi there", "")
	require.NoError(t, err)
	require.Positive(t, first.ID)
	require.False(t, first.Timestamp.IsZero())

	second, err := s.Insert(ctx, "another", "reply", "user@example.com")
	require.NoError(t, err)
	require.Greater(t, second.ID, first.ID)

	records, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)

	// Most recent first.
	require.Equal(t, second.ID, records[0].ID)
	require.Equal(t, "another", records[0].UserMessage)
	require.Equal(t, "user@example.com", records[0].UserEmail)
	require.Equal(t, first.ID, records[1].ID)
	require.Empty(t, records[1].UserEmail)
}

func TestList_Empty(t *testing.T) {
	s := openTestStore(t)

	records, err := s.List(context.Background())
	require.NoError(t, err)
	require.NotNil(t, records)
	require.Empty(t, records)
}

func TestDeleteByID_Idempotent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	rec, err := s.Insert(ctx, "to be deleted", "ok", "")
	require.NoError(t, err)

	require.NoError(t, s.DeleteByID(ctx, rec.ID))
	require.NoError(t, s.DeleteByID(ctx, rec.ID)) // second delete is a no-op

	n, err := s.Count(ctx)
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestInsert_Concurrent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	const workers = 16
	ids := make([]int64, workers)
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rec, err := s.Insert(ctx, "msg", "resp", "")
			ids[i], errs[i] = rec.ID, err
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	seen := make(map[int64]bool, workers)
	for _, id := range ids {
		require.False(t, seen[id], "duplicate id %d", id)
		seen[id] = true
	}

	n, err := s.Count(ctx)
	require.NoError(t, err)
	require.EqualValues(t, workers, n)
}

func TestDurability_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "persist.db")
	ctx := context.Background()

	s, err := Open(path)
	require.NoError(t, err)
	_, err = s.Insert(ctx, "persisted", "yes", "")
	require.NoError(t, err)
	require.NoError(t, s.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	records, err := reopened.List(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, "persisted", records[0].UserMessage)
}

package repository_test

import (
	"context"
	"testing"
	"time"

	"snipbox/backend/internal/repository"
	"snipbox/backend/internal/repository/testutil"
	"snipbox/backend/pkg/snowflake"

	"github.com/stretchr/testify/require"
)

func TestSubmissionRepository_CreateAndList(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := repository.NewSubmissionRepository(db)
	ctx := context.Background()

	first, err := repo.Create(ctx, "first")
	require.NoError(t, err)
	require.NotZero(t, first.ID)
	require.Equal(t, "first", first.Text)
	require.False(t, first.CreatedAt.IsZero())

	second, err := repo.Create(ctx, "second")
	require.NoError(t, err)
	require.Greater(t, second.ID, first.ID)

	items, err := repo.ListBefore(ctx, nil, 10)
	require.NoError(t, err)
	require.Len(t, items, 2)
	require.Equal(t, second.ID, items[0].ID)
	require.Equal(t, first.ID, items[1].ID)
	require.True(t, items[1].CreatedAt.Equal(first.CreatedAt))
}

func TestSubmissionRepository_ListBefore_Cursor(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := repository.NewSubmissionRepository(db)
	ctx := context.Background()

	testutil.SeedSubmissions(t, db, 5)

	cursor := int64(4)
	items, err := repo.ListBefore(ctx, &cursor, 2)
	require.NoError(t, err)
	require.Len(t, items, 2)
	require.Equal(t, int64(3), items[0].ID)
	require.Equal(t, int64(2), items[1].ID)

	missing := int64(1000)
	items, err = repo.ListBefore(ctx, &missing, 10)
	require.NoError(t, err)
	require.Len(t, items, 5)

	lowest := int64(1)
	items, err = repo.ListBefore(ctx, &lowest, 10)
	require.NoError(t, err)
	require.Empty(t, items)
}

func TestSubmissionRepository_ListBefore_IDOrderWinsOverTimestamps(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := repository.NewSubmissionRepository(db)
	ctx := context.Background()

	// Rows whose timestamps disagree with their ids, as after a clock step backwards.
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	testutil.SeedSubmission(t, db, 10, "a", base.Add(2*time.Second))
	testutil.SeedSubmission(t, db, 11, "b", base)
	testutil.SeedSubmission(t, db, 12, "c", base.Add(time.Second))
	testutil.SeedSubmission(t, db, 13, "d", base.Add(-time.Hour))

	var got []int64
	var cursor *int64
	for pages := 0; pages < 10; pages++ {
		items, err := repo.ListBefore(ctx, cursor, 1)
		require.NoError(t, err)
		if len(items) == 0 {
			break
		}
		got = append(got, items[0].ID)
		cursor = &items[0].ID
	}
	require.Equal(t, []int64{13, 12, 11, 10}, got)
}

func TestSubmissionRepository_Create_TimeFromID(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := repository.NewSubmissionRepository(db)
	ctx := context.Background()

	created, err := repo.Create(ctx, "stamped")
	require.NoError(t, err)
	require.True(t, created.CreatedAt.Equal(snowflake.Time(created.ID)))

	items, err := repo.ListBefore(ctx, nil, 1)
	require.NoError(t, err)
	require.Equal(t, created.ID, items[0].ID)
	require.True(t, items[0].CreatedAt.Equal(created.CreatedAt))
}

func TestSubmissionRepository_Empty(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := repository.NewSubmissionRepository(db)

	items, err := repo.ListBefore(context.Background(), nil, 10)
	require.NoError(t, err)
	require.Empty(t, items)
}

func TestSubmissionRepository_PingAndClosed(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := repository.NewSubmissionRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Ping(ctx))

	require.NoError(t, db.Close())
	_, err := repo.Create(ctx, "after close")
	require.Error(t, err)
	_, err = repo.ListBefore(ctx, nil, 1)
	require.Error(t, err)
}

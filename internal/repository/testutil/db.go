package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"snipbox/backend/internal/db"
	"snipbox/backend/pkg/snowflake"

	_ "modernc.org/sqlite"
)

var snowflakeOnce sync.Once

// NewTestDB opens a private in-memory sqlite database with all migrations applied.
func NewTestDB(t *testing.T) *sql.DB {
	t.Helper()

	snowflakeOnce.Do(func() {
		if err := snowflake.Init(0); err != nil {
			panic("failed to initialize snowflake: " + err.Error())
		}
	})

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared&_pragma=foreign_keys(1)", name, time.Now().UnixNano())
	database, err := sql.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	if err := db.Migrate(database); err != nil {
		database.Close()
		t.Fatalf("failed to migrate test database: %v", err)
	}

	t.Cleanup(func() {
		database.Close()
	})

	return database
}

// SeedSubmission inserts a submission with an explicit id and creation time.
func SeedSubmission(t *testing.T, database *sql.DB, id int64, text string, createdAt time.Time) {
	t.Helper()

	_, err := database.ExecContext(
		context.Background(),
		`INSERT INTO submissions (id, text, created_at) VALUES (?, ?, ?)`,
		id, text, createdAt.UTC().Format("2006-01-02T15:04:05.000000000Z07:00"),
	)
	if err != nil {
		t.Fatalf("failed to seed submission: %v", err)
	}
}

// SeedSubmissions inserts n submissions with ids 1..n, one second apart, oldest first.
// It returns their ids newest first, which is the listing order.
func SeedSubmissions(t *testing.T, database *sql.DB, n int) []int64 {
	t.Helper()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	ids := make([]int64, 0, n)
	for i := 1; i <= n; i++ {
		SeedSubmission(t, database, int64(i), fmt.Sprintf("submission %d", i), base.Add(time.Duration(i)*time.Second))
	}
	for i := n; i >= 1; i-- {
		ids = append(ids, int64(i))
	}
	return ids
}

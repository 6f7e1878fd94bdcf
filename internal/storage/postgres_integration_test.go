package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/cockroachdb/cockroach-go/v2/testserver"
	"github.com/jackc/pgx/v5/pgxpool"
)

var testPool *pgxpool.Pool

func TestMain(m *testing.M) {
	server, err := testserver.NewTestServer()
	if err != nil {
		fmt.Fprintf(os.Stderr, "start cockroach test server: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, server.PGURL().String())
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect to cockroach test server: %v\n", err)
		server.Stop()
		os.Exit(1)
	}

	testPool = pool

	code := m.Run()

	pool.Close()
	server.Stop()

	os.Exit(code)
}

func newPostgresStore(t *testing.T) *PostgresBlobStore {
	t.Helper()
	ctx := context.Background()

	store := NewPostgresBlobStore(testPool)
	if err := store.EnsureSchema(ctx); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}

	conn, err := testPool.Acquire(ctx)
	if err != nil {
		t.Fatalf("acquire connection: %v", err)
	}
	defer conn.Release()
	if _, err := conn.Exec(ctx, "DELETE FROM library_blobs"); err != nil {
		t.Fatalf("reset blobs table: %v", err)
	}

	return store
}

func TestPostgresBlobStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newPostgresStore(t)

	if err := store.Put(ctx, KeyVideos, []byte(`[{"id":"v1"}]`)); err != nil {
		t.Fatalf("put: %v", err)
	}

	data, err := store.Get(ctx, KeyVideos)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(data) != `[{"id":"v1"}]` {
		t.Fatalf("unexpected data: %s", data)
	}
}

func TestPostgresBlobStoreUpsert(t *testing.T) {
	ctx := context.Background()
	store := newPostgresStore(t)

	if err := store.Put(ctx, KeyCollections, []byte("old")); err != nil {
		t.Fatalf("first put: %v", err)
	}
	if err := store.Put(ctx, KeyCollections, []byte("new")); err != nil {
		t.Fatalf("second put: %v", err)
	}

	data, err := store.Get(ctx, KeyCollections)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(data) != "new" {
		t.Fatalf("expected upsert to replace the blob, got %s", data)
	}
}

func TestPostgresBlobStoreMissingKey(t *testing.T) {
	store := newPostgresStore(t)

	if _, err := store.Get(context.Background(), "nothing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPostgresBackedLibraryStore(t *testing.T) {
	ctx := context.Background()
	store := newTestLibraryStore(t, newPostgresStore(t))

	snapshot := store.Load(ctx)
	if len(snapshot.Videos) != 0 {
		t.Fatalf("expected an empty library, got %d videos", len(snapshot.Videos))
	}

	snapshot.Videos = append(snapshot.Videos, testVideoRecord("v1"))
	if err := store.Save(ctx, snapshot); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded := store.Load(ctx)
	if len(loaded.Videos) != 1 || loaded.Videos[0].ID != "v1" {
		t.Fatalf("unexpected videos after reload: %+v", loaded.Videos)
	}
}

package objectstore

import (
	"context"
	"io"
	"testing"
)

func TestLocalStorePutGet(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("new local store: %v", err)
	}
	ctx := context.Background()

	if err := store.Put(ctx, "updates/app1/1.0.0/abc/bundle.js", []byte("hello")); err != nil {
		t.Fatalf("put: %v", err)
	}

	reader, size, err := store.Get(ctx, "updates/app1/1.0.0/abc/bundle.js")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "hello" || size != int64(len(data)) {
		t.Fatalf("unexpected content %q size %d", data, size)
	}
}

func TestLocalStoreGetMissingReturnsNotFound(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("new local store: %v", err)
	}
	_, _, err = store.Get(context.Background(), "updates/missing/key")
	if err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestLocalStoreRejectsPathTraversal(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("new local store: %v", err)
	}
	if err := store.Put(context.Background(), "../escape", []byte("x")); err != ErrNotFound {
		t.Fatalf("expected path traversal to be rejected, got %v", err)
	}
}

func TestLocalStoreDeletePrefix(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("new local store: %v", err)
	}
	ctx := context.Background()
	store.Put(ctx, "updates/app1/1.0.0/abc/bundle.js", []byte("a"))
	store.Put(ctx, "updates/app1/1.0.0/abc/metadata.json", []byte("b"))

	if err := store.DeletePrefix(ctx, "updates/app1/1.0.0/abc"); err != nil {
		t.Fatalf("delete prefix: %v", err)
	}
	if _, _, err := store.Get(ctx, "updates/app1/1.0.0/abc/bundle.js"); err != ErrNotFound {
		t.Fatalf("expected deleted object to be gone, got %v", err)
	}
}

package memory

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"chambercore/internal/rawdata/core"
)

func TestPutGetRoundTrip(t *testing.T) {
	store := New()
	ctx := context.Background()

	info, err := store.Put(ctx, "runs/1/a.csv", strings.NewReader("payload"), core.PutOptions{
		ContentType: "text/csv",
		Metadata:    map[string]string{"run": "1"},
	})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if info.Size != 7 {
		t.Fatalf("size %d want 7", info.Size)
	}

	got, rc, err := store.Get(ctx, "runs/1/a.csv")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	data, _ := io.ReadAll(rc)
	_ = rc.Close()
	if string(data) != "payload" || got.ContentType != "text/csv" {
		t.Fatalf("round trip mismatch: %q %+v", data, got)
	}

	// Returned metadata is a copy.
	got.Metadata["run"] = "mutated"
	head, err := store.Head(ctx, "runs/1/a.csv")
	if err != nil {
		t.Fatalf("head: %v", err)
	}
	if head.Metadata["run"] != "1" {
		t.Fatalf("metadata aliased: %+v", head.Metadata)
	}
}

func TestPutIsCreateOnly(t *testing.T) {
	store := New()
	ctx := context.Background()
	if _, err := store.Put(ctx, "k", strings.NewReader("x"), core.PutOptions{}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if _, err := store.Put(ctx, "k", strings.NewReader("y"), core.PutOptions{}); err == nil {
		t.Fatalf("expected create-only rejection")
	}
}

func TestDeleteAndList(t *testing.T) {
	store := New()
	ctx := context.Background()
	for _, key := range []string{"runs/2/b.csv", "runs/1/a.csv", "runs/1/b.csv"} {
		if _, err := store.Put(ctx, key, strings.NewReader("x"), core.PutOptions{}); err != nil {
			t.Fatalf("put %s: %v", key, err)
		}
	}
	infos, err := store.List(ctx, "runs/1/")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(infos) != 2 || infos[0].Key != "runs/1/a.csv" {
		t.Fatalf("unexpected listing: %+v", infos)
	}

	existed, err := store.Delete(ctx, "runs/1/a.csv")
	if err != nil || !existed {
		t.Fatalf("delete: existed=%v err=%v", existed, err)
	}
	if existed, _ = store.Delete(ctx, "runs/1/a.csv"); existed {
		t.Fatalf("second delete must report missing")
	}
}

func TestPresignUnsupported(t *testing.T) {
	store := New()
	if _, err := store.PresignURL(context.Background(), "k", core.SignedURLOptions{}); !errors.Is(err, core.ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
	if store.Driver() != core.DriverMemory {
		t.Fatalf("unexpected driver %s", store.Driver())
	}
}

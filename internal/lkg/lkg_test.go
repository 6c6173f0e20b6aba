package lkg

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/content"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "lkg.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestPutGetRoundTrip(t *testing.T) {
	db := openTestDB(t)

	in := []content.Service{
		{ID: 1, Title: "Advisory", Slug: "advisory"},
		{ID: 2, Title: "Delivery", Slug: "delivery"},
	}
	if err := db.Put("services", in); err != nil {
		t.Fatal(err)
	}

	var out []content.Service
	fetchedAt, err := db.Get("services", &out)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 2 || out[1].Slug != "delivery" {
		t.Errorf("out = %+v", out)
	}
	if time.Since(fetchedAt) > time.Minute {
		t.Errorf("fetched_at = %v, want recent", fetchedAt)
	}
}

func TestPutReplacesSnapshot(t *testing.T) {
	db := openTestDB(t)

	if err := db.Put("about", content.AboutContent{ID: 1, Heading: "Old"}); err != nil {
		t.Fatal(err)
	}
	if err := db.Put("about", content.AboutContent{ID: 1, Heading: "New"}); err != nil {
		t.Fatal(err)
	}

	var out content.AboutContent
	if _, err := db.Get("about", &out); err != nil {
		t.Fatal(err)
	}
	if out.Heading != "New" {
		t.Errorf("heading = %q", out.Heading)
	}
}

func TestGetMissingKey(t *testing.T) {
	db := openTestDB(t)

	var out content.AboutContent
	_, err := db.Get("absent", &out)
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want not found", err)
	}
}

func TestDeleteAndKeys(t *testing.T) {
	db := openTestDB(t)

	for _, k := range []string{"team", "footer", "services"} {
		if err := db.Put(k, map[string]any{"k": k}); err != nil {
			t.Fatal(err)
		}
	}

	if err := db.Delete("footer"); err != nil {
		t.Fatal(err)
	}
	if err := db.Delete("footer"); err != nil {
		t.Errorf("double delete: %v", err)
	}

	keys, err := db.Keys()
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"services", "team"}
	if len(keys) != len(want) {
		t.Fatalf("keys = %v", keys)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Errorf("keys[%d] = %q, want %q", i, keys[i], want[i])
		}
	}
}

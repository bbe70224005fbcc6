package cache

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/licitamatch/backend/internal/domain"
)

func TestMemoryStoreDocuments(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	t.Run("miss on empty store", func(t *testing.T) {
		_, err := store.GetDocument(ctx, domain.DocTypeProduct, "abc", "v1:deadbeef")
		if !errors.Is(err, domain.ErrCacheMiss) {
			t.Errorf("err = %v, want ErrCacheMiss", err)
		}
	})

	t.Run("upsert then get", func(t *testing.T) {
		entry := &domain.CachedDocument{
			DocType:   domain.DocTypeProduct,
			SHA256:    "abc",
			HintKey:   "v1:deadbeef",
			Extracted: json.RawMessage(`{"atributos":{}}`),
		}
		if err := store.UpsertDocument(ctx, entry); err != nil {
			t.Fatalf("upsert: %v", err)
		}
		got, err := store.GetDocument(ctx, domain.DocTypeProduct, "abc", "v1:deadbeef")
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if string(got.Extracted) != `{"atributos":{}}` {
			t.Errorf("Extracted = %s", got.Extracted)
		}
		if got.UpdatedAt.IsZero() {
			t.Error("UpdatedAt should be stamped on upsert")
		}
	})

	t.Run("hint key separates entries for same content", func(t *testing.T) {
		other := &domain.CachedDocument{
			DocType:   domain.DocTypeEdital,
			SHA256:    "abc",
			HintKey:   "v1:cafecafe",
			Extracted: json.RawMessage(`{"requisitos":{}}`),
		}
		if err := store.UpsertDocument(ctx, other); err != nil {
			t.Fatalf("upsert: %v", err)
		}
		_, err := store.GetDocument(ctx, domain.DocTypeEdital, "abc", "v1:deadbeef")
		if !errors.Is(err, domain.ErrCacheMiss) {
			t.Errorf("different hint must miss, got err = %v", err)
		}
	})

	t.Run("upsert replaces", func(t *testing.T) {
		entry := &domain.CachedDocument{
			DocType:   domain.DocTypeProduct,
			SHA256:    "abc",
			HintKey:   "v1:deadbeef",
			Extracted: json.RawMessage(`{"atributos":{"tensao_v":{"valor":12}}}`),
		}
		if err := store.UpsertDocument(ctx, entry); err != nil {
			t.Fatalf("upsert: %v", err)
		}
		got, _ := store.GetDocument(ctx, domain.DocTypeProduct, "abc", "v1:deadbeef")
		if string(got.Extracted) == `{"atributos":{}}` {
			t.Error("upsert should have replaced the entry")
		}
	})
}

func TestMemoryStoreMatches(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	_, err := store.GetMatch(ctx, "e1", "p1", "sig1")
	if !errors.Is(err, domain.ErrCacheMiss) {
		t.Fatalf("err = %v, want ErrCacheMiss", err)
	}

	entry := &domain.CachedMatch{
		EditalSHA256:  "e1",
		ProductSHA256: "p1",
		SettingsSig:   "sig1",
		Result:        json.RawMessage(`{"status_geral":"APROVADO"}`),
	}
	if err := store.UpsertMatch(ctx, entry); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	got, err := store.GetMatch(ctx, "e1", "p1", "sig1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got.Result) != `{"status_geral":"APROVADO"}` {
		t.Errorf("Result = %s", got.Result)
	}

	// A different settings signature is a different computation.
	_, err = store.GetMatch(ctx, "e1", "p1", "sig2")
	if !errors.Is(err, domain.ErrCacheMiss) {
		t.Errorf("different signature must miss, got err = %v", err)
	}
}

func TestMemoryStorePurgeOtherVersions(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	entries := []domain.CachedDocument{
		{DocType: domain.DocTypeProduct, SHA256: "a", HintKey: "v1:aaaa"},
		{DocType: domain.DocTypeProduct, SHA256: "b", HintKey: "v2:bbbb"},
		{DocType: domain.DocTypeEdital, SHA256: "c", HintKey: "v1:cccc"},
	}
	for i := range entries {
		if err := store.UpsertDocument(ctx, &entries[i]); err != nil {
			t.Fatalf("upsert: %v", err)
		}
	}

	removed, err := store.PurgeOtherVersions(ctx, "v2")
	if err != nil {
		t.Fatalf("purge: %v", err)
	}
	if removed != 2 {
		t.Errorf("removed = %d, want 2", removed)
	}
	if _, err := store.GetDocument(ctx, domain.DocTypeProduct, "b", "v2:bbbb"); err != nil {
		t.Errorf("current-version entry should survive, got %v", err)
	}
	docs, _ := store.Len()
	if docs != 1 {
		t.Errorf("documents = %d, want 1", docs)
	}
}

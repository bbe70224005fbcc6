package cache

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/licitamatch/backend/internal/domain"
)

// MemoryStore is a thread-safe in-memory CacheStore. Used in tests and
// single-process deployments; the postgres store is the durable backend.
type MemoryStore struct {
	mutex     sync.RWMutex
	documents map[string]domain.CachedDocument
	matches   map[string]domain.CachedMatch
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		documents: make(map[string]domain.CachedDocument),
		matches:   make(map[string]domain.CachedMatch),
	}
}

func documentKey(docType, sha, hint string) string {
	return docType + "|" + sha + "|" + hint
}

func matchKey(editalSHA, productSHA, sig string) string {
	return editalSHA + "|" + productSHA + "|" + sig
}

// GetDocument returns the stored extraction or ErrCacheMiss.
func (s *MemoryStore) GetDocument(ctx context.Context, docType, sha256, hintKey string) (*domain.CachedDocument, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	entry, ok := s.documents[documentKey(docType, sha256, hintKey)]
	if !ok {
		return nil, domain.ErrCacheMiss
	}
	copied := entry
	return &copied, nil
}

// UpsertDocument stores or replaces an entry. Last writer wins per key;
// content is deterministic for identical inputs so the race is benign.
func (s *MemoryStore) UpsertDocument(ctx context.Context, entry *domain.CachedDocument) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	stored := *entry
	stored.UpdatedAt = time.Now()
	s.documents[documentKey(entry.DocType, entry.SHA256, entry.HintKey)] = stored
	return nil
}

// GetMatch returns the stored match computation or ErrCacheMiss.
func (s *MemoryStore) GetMatch(ctx context.Context, editalSHA, productSHA, settingsSig string) (*domain.CachedMatch, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	entry, ok := s.matches[matchKey(editalSHA, productSHA, settingsSig)]
	if !ok {
		return nil, domain.ErrCacheMiss
	}
	copied := entry
	return &copied, nil
}

// UpsertMatch stores or replaces a match entry.
func (s *MemoryStore) UpsertMatch(ctx context.Context, entry *domain.CachedMatch) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	stored := *entry
	stored.UpdatedAt = time.Now()
	s.matches[matchKey(entry.EditalSHA256, entry.ProductSHA256, entry.SettingsSig)] = stored
	return nil
}

// PurgeOtherVersions drops document entries whose hint key was built under a
// different schema version. Match entries are keyed by settings signature and
// expire naturally on signature change, but are purged here too to bound
// memory.
func (s *MemoryStore) PurgeOtherVersions(ctx context.Context, currentVersion string) (int64, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	var removed int64
	prefix := currentVersion + ":"
	for key, entry := range s.documents {
		if !strings.HasPrefix(entry.HintKey, prefix) {
			delete(s.documents, key)
			removed++
		}
	}
	return removed, nil
}

// Len reports stored entry counts, for monitoring.
func (s *MemoryStore) Len() (documents, matches int) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return len(s.documents), len(s.matches)
}

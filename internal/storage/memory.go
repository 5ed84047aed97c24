package storage

import (
	"context"
	"io"
	"sync"
)

// MemoryStore keeps uploads in memory. Used in tests and when no
// CLOUDINARY_URL is configured (local development).
type MemoryStore struct {
	mu      sync.Mutex
	objects map[string][]byte

	// UploadErr, when set, fails the next Upload. Tests use it to
	// exercise the compensating-delete path.
	UploadErr error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string][]byte)}
}

func (s *MemoryStore) Upload(_ context.Context, file io.Reader, publicID string) (*UploadedPhoto, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.UploadErr != nil {
		err := s.UploadErr
		s.UploadErr = nil
		return nil, err
	}
	data, err := io.ReadAll(file)
	if err != nil {
		return nil, err
	}
	s.objects[publicID] = data
	return &UploadedPhoto{URL: "memory://" + publicID, PublicID: publicID}, nil
}

func (s *MemoryStore) Destroy(_ context.Context, publicID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, publicID)
	return nil
}

// Len returns the number of stored objects.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}

// Has reports whether publicID is stored.
func (s *MemoryStore) Has(publicID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[publicID]
	return ok
}

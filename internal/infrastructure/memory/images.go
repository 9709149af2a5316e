package memory

import (
	"context"
	"fmt"
	"io"
	"sync"
)

// ImageStore holds uploaded objects in memory for STORE_BACKEND=memory.
type ImageStore struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func NewImageStore() *ImageStore {
	return &ImageStore{objects: make(map[string][]byte)}
}

func (s *ImageStore) Upload(_ context.Context, key string, r io.Reader, _ string) (string, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read image: %w", err)
	}
	s.mu.Lock()
	s.objects[key] = b
	s.mu.Unlock()
	return "memory://" + key, nil
}

func (s *ImageStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.objects, key)
	s.mu.Unlock()
	return nil
}

// Len reports how many objects are stored.
func (s *ImageStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}

package testhelpers

import (
	"context"
	"fmt"
	"io"
	"sync"
)

// StoredObject is an object held by MemoryStorage.
type StoredObject struct {
	Data        []byte
	ContentType string
}

// MemoryStorage keeps objects in memory and serves URLs under BaseURL.
type MemoryStorage struct {
	mu      sync.Mutex
	objects map[string]StoredObject
	puts    int

	BaseURL string
	PutErr  error
	PingErr error
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		objects: make(map[string]StoredObject),
		BaseURL: "http://storage.test/catalog-assets",
	}
}

func (s *MemoryStorage) PutObject(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error {
	if s.PutErr != nil {
		return s.PutErr
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	if size >= 0 && int64(len(data)) != size {
		return fmt.Errorf("size mismatch: declared %d, read %d", size, len(data))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = StoredObject{Data: data, ContentType: contentType}
	s.puts++
	return nil
}

func (s *MemoryStorage) RemoveObject(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}

func (s *MemoryStorage) ObjectURL(key string) string {
	return s.BaseURL + "/" + key
}

func (s *MemoryStorage) EnsureBucket(ctx context.Context) error { return nil }

func (s *MemoryStorage) Ping(ctx context.Context) error { return s.PingErr }

// Object returns the stored object for key.
func (s *MemoryStorage) Object(key string) (StoredObject, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	obj, ok := s.objects[key]
	return obj, ok
}

// Len returns the number of stored objects.
func (s *MemoryStorage) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}

// Puts returns the number of successful uploads.
func (s *MemoryStorage) Puts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.puts
}

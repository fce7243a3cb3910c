package gateway

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// mockStore is an in-memory ObjectStore with injectable failures.
type mockStore struct {
	mu           sync.Mutex
	objects      map[string][]byte
	contentTypes map[string]string
	putErr       error
	removeErrs   map[string]error
	presignErr   error
	removed      []string
}

func newMockStore() *mockStore {
	return &mockStore{
		objects:      make(map[string][]byte),
		contentTypes: make(map[string]string),
		removeErrs:   make(map[string]error),
	}
}

func (m *mockStore) EnsureBucket(context.Context) error { return nil }

func (m *mockStore) RemoveBucket(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects = make(map[string][]byte)
	return nil
}

func (m *mockStore) PutObject(_ context.Context, name string, data []byte, contentType string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.putErr != nil {
		return m.putErr
	}
	m.objects[name] = data
	m.contentTypes[name] = contentType
	return nil
}

func (m *mockStore) GetObject(_ context.Context, name string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if data, ok := m.objects[name]; ok {
		return data, nil
	}
	return nil, fmt.Errorf("object not found: %s", name)
}

func (m *mockStore) RemoveObject(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removed = append(m.removed, name)
	if err := m.removeErrs[name]; err != nil {
		return err
	}
	delete(m.objects, name)
	delete(m.contentTypes, name)
	return nil
}

func (m *mockStore) PresignedURL(_ context.Context, name string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.presignErr != nil {
		return "", m.presignErr
	}
	return "http://minio.local/memes/" + name + "?X-Amz-Signature=abc", nil
}

func (m *mockStore) setRemoveError(name string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removeErrs[name] = err
}

func (m *mockStore) keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.objects))
	for k := range m.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

package catalog

import (
	"context"
	"sort"
	"sync"

	"github.com/ahmad-alkadri/meme-depot/internal/apperr"
)

type memoryStore struct {
	mu     sync.Mutex
	nextID int64
	rows   map[int64]Meme

	createErr error
	saveErr   error
	deleteErr error
	saves     int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{nextID: 1, rows: map[int64]Meme{}}
}

func (s *memoryStore) Create(_ context.Context, m *Meme) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return s.createErr
	}
	for _, row := range s.rows {
		if row.Name == m.Name {
			return apperr.Persistence(nil, "meme name %q already exists", m.Name)
		}
	}
	m.ID = s.nextID
	s.nextID++
	s.rows[m.ID] = *m
	return nil
}

func (s *memoryStore) List(_ context.Context, offset, limit int) ([]Meme, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]int64, 0, len(s.rows))
	for id := range s.rows {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	memes := []Meme{}
	for i := offset; i < len(ids) && len(memes) < limit; i++ {
		memes = append(memes, s.rows[ids[i]])
	}
	return memes, nil
}

func (s *memoryStore) Get(_ context.Context, id int64) (Meme, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.rows[id]
	if !ok {
		return Meme{}, errMemeNotFound
	}
	return m, nil
}

func (s *memoryStore) Save(_ context.Context, m Meme) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves++
	if s.saveErr != nil {
		return s.saveErr
	}
	if _, ok := s.rows[m.ID]; !ok {
		return errMemeNotFound
	}
	s.rows[m.ID] = m
	return nil
}

func (s *memoryStore) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.deleteErr != nil {
		return s.deleteErr
	}
	if _, ok := s.rows[id]; !ok {
		return errMemeNotFound
	}
	delete(s.rows, id)
	return nil
}

type gatewayCall struct {
	method      string
	filename    string
	oldFilename string
}

type fakeGateway struct {
	mu      sync.Mutex
	calls   []gatewayCall
	objects map[string][]byte

	uploadErr  error
	replaceErr error
	deleteErr  error
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{objects: map[string][]byte{}}
}

func fakeURL(filename string) string {
	return "http://minio.local/memes/" + filename + "?X-Amz-Signature=abc"
}

func (g *fakeGateway) Upload(_ context.Context, filename string, image []byte) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, gatewayCall{method: "upload", filename: filename})
	if g.uploadErr != nil {
		return "", g.uploadErr
	}
	g.objects[filename] = image
	return fakeURL(filename), nil
}

func (g *fakeGateway) Replace(_ context.Context, filename, oldFilename string, image []byte) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, gatewayCall{method: "replace", filename: filename, oldFilename: oldFilename})
	if g.replaceErr != nil {
		return "", g.replaceErr
	}
	g.objects[filename] = image
	if oldFilename != "" && oldFilename != filename {
		delete(g.objects, oldFilename)
	}
	return fakeURL(filename), nil
}

func (g *fakeGateway) Delete(_ context.Context, filename string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, gatewayCall{method: "delete", filename: filename})
	if g.deleteErr != nil {
		return g.deleteErr
	}
	delete(g.objects, filename)
	return nil
}

func (g *fakeGateway) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.calls)
}

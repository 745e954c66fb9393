// Package memstore is an in-process record store. Records live in maps keyed
// by identity and reference each other only by id.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/jdholdren/murmur/internal/murmur"
)

var _ murmur.Repository = (*Store)(nil)

type userRecord struct {
	user      murmur.User
	following map[string]struct{}
	seq       int
}

type Store struct {
	mu    sync.RWMutex
	users map[string]*userRecord
	posts map[string]murmur.Post
	seq   int
}

func New() *Store {
	return &Store{
		users: make(map[string]*userRecord),
		posts: make(map[string]murmur.Post),
	}
}

func (s *Store) CreateUser(_ context.Context, name string) (murmur.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	usr := murmur.User{ID: uuid.NewString() + "-usr", Name: name}
	s.users[usr.ID] = &userRecord{
		user:      usr,
		following: map[string]struct{}{usr.ID: {}},
		seq:       s.seq,
	}

	return usr, nil
}

func (s *Store) User(_ context.Context, id string) (murmur.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.users[id]
	if !ok {
		return murmur.User{}, fmt.Errorf("user %q: %w", id, murmur.ErrNotFound)
	}

	return copyUser(rec.user), nil
}

// Users returns every user in creation order.
func (s *Store) Users(_ context.Context) ([]murmur.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	recs := make([]*userRecord, 0, len(s.users))
	for _, rec := range s.users {
		recs = append(recs, rec)
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].seq < recs[j].seq })

	users := make([]murmur.User, 0, len(recs))
	for _, rec := range recs {
		users = append(users, copyUser(rec.user))
	}

	return users, nil
}

func (s *Store) AppendPost(_ context.Context, p murmur.Post) (murmur.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.users[p.AuthorID]
	if !ok {
		return murmur.Post{}, fmt.Errorf("author %q: %w", p.AuthorID, murmur.ErrNotFound)
	}
	if !sameID(rec.user.HeadPostID, p.PredecessorID) {
		return murmur.Post{}, fmt.Errorf("author %q: %w", p.AuthorID, murmur.ErrHeadMoved)
	}

	p.ID = uuid.NewString() + "-pst"
	p.PredecessorID = copyID(p.PredecessorID)
	s.posts[p.ID] = p
	rec.user.HeadPostID = copyID(&p.ID)

	return copyPost(p), nil
}

func (s *Store) Post(_ context.Context, id string) (murmur.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.posts[id]
	if !ok {
		return murmur.Post{}, fmt.Errorf("post %q: %w", id, murmur.ErrNotFound)
	}

	return copyPost(p), nil
}

func (s *Store) AddFollow(_ context.Context, followerID, followeeID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.users[followerID]
	if !ok {
		return false, fmt.Errorf("user %q: %w", followerID, murmur.ErrNotFound)
	}
	if _, ok := s.users[followeeID]; !ok {
		return false, fmt.Errorf("user %q: %w", followeeID, murmur.ErrNotFound)
	}
	if _, ok := rec.following[followeeID]; ok {
		return false, nil
	}
	rec.following[followeeID] = struct{}{}

	return true, nil
}

func (s *Store) RemoveFollow(_ context.Context, followerID, followeeID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.users[followerID]
	if !ok {
		return false, nil
	}
	if _, ok := rec.following[followeeID]; !ok {
		return false, nil
	}
	delete(rec.following, followeeID)

	return true, nil
}

func (s *Store) Following(_ context.Context, followerID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.users[followerID]
	if !ok {
		return []string{}, nil
	}

	ids := make([]string, 0, len(rec.following))
	for id := range rec.following {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	return ids, nil
}

// Records handed out never alias the arena's own pointers.
func copyUser(u murmur.User) murmur.User {
	u.HeadPostID = copyID(u.HeadPostID)
	return u
}

func copyPost(p murmur.Post) murmur.Post {
	p.PredecessorID = copyID(p.PredecessorID)
	return p
}

func sameID(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func copyID(id *string) *string {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}

package feed

import (
	"container/heap"
	"context"
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/jdholdren/murmur/internal/follow"
	"github.com/jdholdren/murmur/internal/memstore"
	"github.com/jdholdren/murmur/internal/murmur"
	"github.com/jdholdren/murmur/internal/timeline"
)

type fixture struct {
	repo      *memstore.Store
	graph     *follow.Graph
	timelines *timeline.Store
	merger    *Merger
}

func newFixture(t *testing.T) fixture {
	t.Helper()

	repo := memstore.New()
	timelines, err := timeline.NewStore(repo, 128)
	require.NoError(t, err)
	graph := follow.NewGraph(repo)

	return fixture{
		repo:      repo,
		graph:     graph,
		timelines: timelines,
		merger:    NewMerger(graph, timelines),
	}
}

func (f fixture) user(t *testing.T, name string) murmur.User {
	t.Helper()

	usr, err := f.repo.CreateUser(context.Background(), name)
	require.NoError(t, err)
	return usr
}

func (f fixture) post(t *testing.T, authorID, content string, ts int64) murmur.Post {
	t.Helper()

	p, err := f.timelines.Append(context.Background(), authorID, content, ts)
	require.NoError(t, err)
	return p
}

type stamped struct {
	Content   string
	Timestamp int64
}

func stamps(posts []murmur.Post) []stamped {
	out := make([]stamped, 0, len(posts))
	for _, p := range posts {
		out = append(out, stamped{Content: p.Content, Timestamp: p.Timestamp})
	}
	return out
}

func TestFeed_Scenarios(t *testing.T) {
	var (
		ctx   = context.Background()
		f     = newFixture(t)
		alice = f.user(t, "alice")
		bob   = f.user(t, "bob")
	)
	f.post(t, alice.ID, "hello", 1)
	f.post(t, alice.ID, "world", 2)
	f.post(t, bob.ID, "hi", 3)
	require.NoError(t, f.graph.Follow(ctx, alice.ID, bob.ID))

	tests := []struct {
		name  string
		limit int
		want  []stamped
	}{
		{
			name:  "everything",
			limit: 3,
			want:  []stamped{{"hi", 3}, {"world", 2}, {"hello", 1}},
		},
		{
			name:  "newest only",
			limit: 1,
			want:  []stamped{{"hi", 3}},
		},
		{
			name:  "limit past the end",
			limit: 10,
			want:  []stamped{{"hi", 3}, {"world", 2}, {"hello", 1}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			posts, err := f.merger.Feed(ctx, alice.ID, tt.limit)
			require.NoError(t, err)
			assert.Equal(t, tt.want, stamps(posts))
		})
	}

	// Bob doesn't follow alice, so he only sees himself.
	posts, err := f.merger.Feed(ctx, bob.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, []stamped{{"hi", 3}}, stamps(posts))
}

func TestFeed_NobodyPosted(t *testing.T) {
	var (
		f     = newFixture(t)
		alice = f.user(t, "alice")
	)

	posts, err := f.merger.Feed(context.Background(), alice.ID, 5)
	require.NoError(t, err)
	assert.Empty(t, posts)
}

func TestFeed_InvalidLimit(t *testing.T) {
	var (
		f     = newFixture(t)
		alice = f.user(t, "alice")
	)

	for _, limit := range []int{0, -1} {
		_, err := f.merger.Feed(context.Background(), alice.ID, limit)
		assert.ErrorIs(t, err, murmur.ErrInvalidArgument)
	}
}

func TestFeed_UnknownUser(t *testing.T) {
	f := newFixture(t)

	_, err := f.merger.Feed(context.Background(), "nope", 5)
	assert.ErrorIs(t, err, murmur.ErrNotFound)
}

func TestFeed_TiesBreakOnAuthorID(t *testing.T) {
	var (
		ctx = context.Background()
		f   = newFixture(t)
		a   = f.user(t, "a")
		b   = f.user(t, "b")
		c   = f.user(t, "c")
	)
	for _, usr := range []murmur.User{a, b, c} {
		f.post(t, usr.ID, usr.Name, 7)
		if usr.ID != a.ID {
			require.NoError(t, f.graph.Follow(ctx, a.ID, usr.ID))
		}
	}

	posts, err := f.merger.Feed(ctx, a.ID, 3)
	require.NoError(t, err)
	require.Len(t, posts, 3)
	for i := 1; i < len(posts); i++ {
		assert.Less(t, posts[i-1].AuthorID, posts[i].AuthorID)
	}
}

func TestFeed_UnfollowedAuthorDrops(t *testing.T) {
	var (
		ctx   = context.Background()
		f     = newFixture(t)
		alice = f.user(t, "alice")
		bob   = f.user(t, "bob")
	)
	f.post(t, bob.ID, "hi", 3)
	require.NoError(t, f.graph.Follow(ctx, alice.ID, bob.ID))
	require.NoError(t, f.graph.Unfollow(ctx, alice.ID, bob.ID))

	posts, err := f.merger.Feed(ctx, alice.ID, 3)
	require.NoError(t, err)
	assert.Empty(t, posts)
}

// Random timelines checked against the properties any merge must hold.
func TestFeed_Properties(t *testing.T) {
	var (
		ctx    = context.Background()
		f      = newFixture(t)
		rng    = rand.New(rand.NewPCG(1, 2))
		reader = f.user(t, "reader")
		total  = 0
		byID   = make(map[string][]murmur.Post) // newest first
	)

	for range 8 {
		author := f.user(t, "author")
		require.NoError(t, f.graph.Follow(ctx, reader.ID, author.ID))

		var ts int64
		for range rng.IntN(12) {
			ts += int64(rng.IntN(3))
			p := f.post(t, author.ID, "post", ts)
			ts = p.Timestamp
			byID[author.ID] = append([]murmur.Post{p}, byID[author.ID]...)
			total++
		}
	}

	for _, limit := range []int{1, 5, 17, total, total + 5} {
		posts, err := f.merger.Feed(ctx, reader.ID, limit)
		require.NoError(t, err)

		assert.Len(t, posts, min(limit, total))
		for i := 1; i < len(posts); i++ {
			assert.GreaterOrEqual(t, posts[i-1].Timestamp, posts[i].Timestamp)
		}

		// Whatever an author contributes is exactly their newest posts, in order.
		contributed := make(map[string][]murmur.Post)
		for _, p := range posts {
			contributed[p.AuthorID] = append(contributed[p.AuthorID], p)
		}
		for author, got := range contributed {
			assert.Equal(t, byID[author][:len(got)], got)
		}
	}
}

func TestFeed_ConcurrentWithPublish(t *testing.T) {
	var (
		ctx   = context.Background()
		f     = newFixture(t)
		alice = f.user(t, "alice")
		bob   = f.user(t, "bob")
		g     errgroup.Group
	)
	require.NoError(t, f.graph.Follow(ctx, alice.ID, bob.ID))

	for i := range 50 {
		g.Go(func() error {
			_, err := f.timelines.Append(ctx, bob.ID, "post", int64(i))
			return err
		})
		g.Go(func() error {
			posts, err := f.merger.Feed(ctx, alice.ID, 10)
			if err != nil {
				return err
			}
			for j := 1; j < len(posts); j++ {
				if posts[j-1].Timestamp <= posts[j].Timestamp {
					return errors.New("feed out of order")
				}
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
}

// fakeTimelines serves hand-built, possibly broken, chains.
type fakeTimelines struct {
	heads map[string]murmur.Post
	posts map[string]murmur.Post
}

func (ft fakeTimelines) Head(_ context.Context, authorID string) (*murmur.Post, error) {
	p, ok := ft.heads[authorID]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (ft fakeTimelines) Predecessor(_ context.Context, p murmur.Post) (*murmur.Post, error) {
	if p.PredecessorID == nil {
		return nil, nil
	}
	pred := ft.posts[*p.PredecessorID]
	return &pred, nil
}

type fakeGraph []string

func (fg fakeGraph) Following(context.Context, string) ([]string, error) {
	return fg, nil
}

func ref(id string) *string { return &id }

func TestFeed_DataCorruption(t *testing.T) {
	tests := []struct {
		name  string
		posts []murmur.Post // the first is the head
	}{
		{
			name: "cycle",
			posts: []murmur.Post{
				{ID: "p2", AuthorID: "a", Timestamp: 2, PredecessorID: ref("p1")},
				{ID: "p1", AuthorID: "a", Timestamp: 1, PredecessorID: ref("p2")},
			},
		},
		{
			name: "self loop",
			posts: []murmur.Post{
				{ID: "p1", AuthorID: "a", Timestamp: 1, PredecessorID: ref("p1")},
			},
		},
		{
			name: "other author",
			posts: []murmur.Post{
				{ID: "p2", AuthorID: "a", Timestamp: 2, PredecessorID: ref("p1")},
				{ID: "p1", AuthorID: "b", Timestamp: 1},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ft := fakeTimelines{
				heads: map[string]murmur.Post{"a": tt.posts[0]},
				posts: make(map[string]murmur.Post),
			}
			for _, p := range tt.posts {
				ft.posts[p.ID] = p
			}

			_, err := NewMerger(fakeGraph{"a"}, ft).Feed(context.Background(), "a", 100)
			assert.ErrorIs(t, err, murmur.ErrDataCorruption)
		})
	}
}

func TestFeed_RepeatedPostID(t *testing.T) {
	// Timestamps descend but the store hands back a post id it already gave.
	ft := fakeTimelines{
		heads: map[string]murmur.Post{
			"a": {ID: "p2", AuthorID: "a", Timestamp: 2, PredecessorID: ref("x")},
		},
		posts: map[string]murmur.Post{
			"x": {ID: "p2", AuthorID: "a", Timestamp: 1},
		},
	}

	_, err := NewMerger(fakeGraph{"a"}, ft).Feed(context.Background(), "a", 100)
	assert.ErrorIs(t, err, murmur.ErrDataCorruption)
}

func TestFrontier_Order(t *testing.T) {
	f := frontier{
		{ID: "1", AuthorID: "b", Timestamp: 5},
		{ID: "2", AuthorID: "a", Timestamp: 5},
		{ID: "3", AuthorID: "c", Timestamp: 9},
		{ID: "4", AuthorID: "a", Timestamp: 1},
	}
	heap.Init(&f)

	var got []string
	for f.Len() > 0 {
		got = append(got, heap.Pop(&f).(murmur.Post).ID)
	}
	assert.Equal(t, []string{"3", "2", "1", "4"}, got)
}

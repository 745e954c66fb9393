package ingest

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdholdren/murmur/internal/memstore"
	"github.com/jdholdren/murmur/internal/murmur"
	"github.com/jdholdren/murmur/internal/timeline"
)

// stepClock ticks one millisecond per reading.
type stepClock struct {
	now time.Time
}

func (c *stepClock) Now() time.Time {
	c.now = c.now.Add(time.Millisecond)
	return c.now
}

func newTestPublisher(t *testing.T, clock Clock) (*Publisher, *timeline.Store, murmur.User) {
	t.Helper()

	repo := memstore.New()
	alice, err := repo.CreateUser(context.Background(), "alice")
	require.NoError(t, err)
	timelines, err := timeline.NewStore(repo, 16)
	require.NoError(t, err)

	return NewPublisher(timelines, clock, 10), timelines, alice
}

func TestPublish(t *testing.T) {
	var (
		ctx                   = context.Background()
		clock                 = &stepClock{now: time.UnixMilli(1000)}
		pub, timelines, alice = newTestPublisher(t, clock)
	)

	first, err := pub.Publish(ctx, alice.ID, "hello")
	require.NoError(t, err)
	assert.Equal(t, int64(1001), first.Timestamp)
	assert.Equal(t, alice.ID, first.AuthorID)

	second, err := pub.Publish(ctx, alice.ID, "world")
	require.NoError(t, err)
	assert.Equal(t, int64(1002), second.Timestamp)
	require.NotNil(t, second.PredecessorID)
	assert.Equal(t, first.ID, *second.PredecessorID)

	head, err := timelines.Head(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, second, *head)
}

func TestPublish_Validation(t *testing.T) {
	var (
		ctx           = context.Background()
		pub, _, alice = newTestPublisher(t, SystemClock)
	)

	tests := []struct {
		name     string
		authorID string
		content  string
		want     error
	}{
		{name: "empty", authorID: alice.ID, content: "", want: murmur.ErrInvalidArgument},
		{name: "whitespace", authorID: alice.ID, content: " \n\t", want: murmur.ErrInvalidArgument},
		{name: "too long", authorID: alice.ID, content: strings.Repeat("a", 11), want: murmur.ErrInvalidArgument},
		{name: "unknown author", authorID: "nope", content: "hi", want: murmur.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := pub.Publish(ctx, tt.authorID, tt.content)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestPublish_LengthCountsRunes(t *testing.T) {
	var (
		ctx           = context.Background()
		pub, _, alice = newTestPublisher(t, SystemClock)
	)

	_, err := pub.Publish(ctx, alice.ID, strings.Repeat("é", 10))
	assert.NoError(t, err)
}

func TestPublish_FrozenClockStillOrders(t *testing.T) {
	var (
		ctx           = context.Background()
		frozen        = ClockFunc(func() time.Time { return time.UnixMilli(5) })
		pub, _, alice = newTestPublisher(t, frozen)
	)

	first, err := pub.Publish(ctx, alice.ID, "a")
	require.NoError(t, err)
	second, err := pub.Publish(ctx, alice.ID, "b")
	require.NoError(t, err)

	assert.Greater(t, second.Timestamp, first.Timestamp)
}

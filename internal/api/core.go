package api

import (
	"fmt"

	"github.com/jdholdren/murmur/internal/feed"
	"github.com/jdholdren/murmur/internal/follow"
	"github.com/jdholdren/murmur/internal/ingest"
	"github.com/jdholdren/murmur/internal/murmur"
	"github.com/jdholdren/murmur/internal/timeline"
)

// Core is the set of feed operations the API serves.
type Core struct {
	Users     murmur.UserRepo
	Graph     *follow.Graph
	Timelines *timeline.Store
	Publisher *ingest.Publisher
	Merger    *feed.Merger
}

type CoreConfig struct {
	PostCacheSize int
	MaxPostLength int
	Clock         ingest.Clock
}

// NewCore wires the core components on top of one store.
func NewCore(repo murmur.Repository, config CoreConfig) (Core, error) {
	timelines, err := timeline.NewStore(repo, config.PostCacheSize)
	if err != nil {
		return Core{}, fmt.Errorf("error creating timeline store: %s", err)
	}
	graph := follow.NewGraph(repo)

	return Core{
		Users:     repo,
		Graph:     graph,
		Timelines: timelines,
		Publisher: ingest.NewPublisher(timelines, config.Clock, config.MaxPostLength),
		Merger:    feed.NewMerger(graph, timelines),
	}, nil
}

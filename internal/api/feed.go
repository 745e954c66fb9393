package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/jdholdren/murmur/internal/serverutil"
	"github.com/jdholdren/murmur/logger"
)

func (s Server) getFeed(w http.ResponseWriter, r *http.Request) error {
	var (
		ctx    = r.Context()
		userID = mux.Vars(r)["userID"]
	)
	ctx = logger.Ctx(ctx, slog.String("user_id", userID))

	limit, err := parseLimit(r, s.feedLimits)
	if err != nil {
		return err
	}

	posts, err := s.core.Merger.Feed(ctx, userID, limit)
	if err != nil {
		return err
	}
	s.metrics.FeedServed(len(posts))

	return serverutil.WriteJSON(w, http.StatusOK, apiPosts(posts, limit))
}

package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	v1 "github.com/jdholdren/murmur/api/murmur/v1"
	"github.com/jdholdren/murmur/internal/serverutil"
	"github.com/jdholdren/murmur/logger"
)

func (s Server) getFollowing(w http.ResponseWriter, r *http.Request) error {
	userID := mux.Vars(r)["userID"]

	following, err := s.core.Graph.Following(r.Context(), userID)
	if err != nil {
		return err
	}

	return serverutil.WriteJSON(w, http.StatusOK, v1.Following{
		UserID:    userID,
		Following: following,
	})
}

func (s Server) postFollowing(w http.ResponseWriter, r *http.Request) error {
	var (
		ctx        = r.Context()
		followerID = mux.Vars(r)["userID"]
	)
	ctx = logger.Ctx(ctx, slog.String("user_id", followerID))

	body, err := serverutil.DecodeValid[v1.FollowRequest](r.Body)
	if err != nil {
		return err
	}

	if err := s.core.Graph.Follow(ctx, followerID, body.FolloweeID); err != nil {
		return err
	}

	return s.writeFollowing(w, r, followerID)
}

func (s Server) deleteFollowing(w http.ResponseWriter, r *http.Request) error {
	var (
		ctx        = r.Context()
		vars       = mux.Vars(r)
		followerID = vars["userID"]
	)
	ctx = logger.Ctx(ctx, slog.String("user_id", followerID))

	if err := s.core.Graph.Unfollow(ctx, followerID, vars["followeeID"]); err != nil {
		return err
	}

	return s.writeFollowing(w, r, followerID)
}

// Mutations answer with the follower's resulting following set.
func (s Server) writeFollowing(w http.ResponseWriter, r *http.Request, followerID string) error {
	following, err := s.core.Graph.Following(r.Context(), followerID)
	if err != nil {
		return err
	}

	return serverutil.WriteJSON(w, http.StatusOK, v1.Following{
		UserID:    followerID,
		Following: following,
	})
}

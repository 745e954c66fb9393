package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	v1 "github.com/jdholdren/murmur/api/murmur/v1"
	"github.com/jdholdren/murmur/internal/murmur"
	"github.com/jdholdren/murmur/internal/serverutil"
	"github.com/jdholdren/murmur/logger"
)

func apiUser(u murmur.User) v1.User {
	return v1.User{
		ID:         u.ID,
		Name:       u.Name,
		HeadPostID: u.HeadPostID,
	}
}

func (s Server) postUsers(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	body, err := serverutil.DecodeValid[v1.CreateUserRequest](r.Body)
	if err != nil {
		return err
	}

	usr, err := s.core.Users.CreateUser(ctx, body.Name)
	if err != nil {
		return murmur.Internal(err)
	}
	ctx = logger.Ctx(ctx, slog.String("user_id", usr.ID))
	slog.InfoContext(ctx, "created user")

	resp := apiUser(usr)
	resp.Following = []string{usr.ID}
	return serverutil.WriteJSON(w, http.StatusCreated, resp)
}

func (s Server) getUsers(w http.ResponseWriter, r *http.Request) error {
	users, err := s.core.Users.Users(r.Context())
	if err != nil {
		return murmur.Internal(err)
	}

	resp := v1.UserList{Users: make([]v1.User, 0, len(users))}
	for _, usr := range users {
		resp.Users = append(resp.Users, apiUser(usr))
	}

	return serverutil.WriteJSON(w, http.StatusOK, resp)
}

func (s Server) getUser(w http.ResponseWriter, r *http.Request) error {
	var (
		ctx    = r.Context()
		userID = mux.Vars(r)["userID"]
	)

	usr, err := s.core.Users.User(ctx, userID)
	if err != nil {
		return murmur.Internal(err)
	}
	following, err := s.core.Graph.Following(ctx, userID)
	if err != nil {
		return err
	}

	resp := apiUser(usr)
	resp.Following = following
	return serverutil.WriteJSON(w, http.StatusOK, resp)
}

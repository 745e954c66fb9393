// Package api serves the murmur core over HTTP.
package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/microcosm-cc/bluemonday"

	"github.com/jdholdren/murmur/internal/metrics"
	"github.com/jdholdren/murmur/internal/serverutil"
)

type (
	// Server is the HTTP front of the feed core. It only translates between
	// requests and core operations.
	Server struct {
		*http.Server

		core      Core
		metrics   *metrics.Metrics
		sanitizer *bluemonday.Policy

		feedLimits     Limits
		timelineLimits Limits
	}

	ServerConfig struct {
		Port       int
		CorsOrigin string

		FeedLimits     Limits
		TimelineLimits Limits
	}
)

func NewServer(config ServerConfig, core Core, m *metrics.Metrics) *Server {
	r := serverutil.ErrRouter{Router: mux.NewRouter()}

	srvr := Server{
		core:           core,
		metrics:        m,
		sanitizer:      bluemonday.StrictPolicy(),
		feedLimits:     config.FeedLimits,
		timelineLimits: config.TimelineLimits,
		Server: &http.Server{
			Addr:         fmt.Sprintf(":%d", config.Port),
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 5 * time.Second,
			Handler: handlers.CORS(
				handlers.AllowedOrigins([]string{config.CorsOrigin}),
				handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions}),
				handlers.AllowedHeaders([]string{"content-type"}),
			)(r),
		},
	}

	r.Use(serverutil.AccessLogMiddleware) // Log everything
	r.Use(m.Middleware)
	r.Handle("/metrics", m.Handler()).Methods(http.MethodGet)

	// Users
	r.HandleFuncE("/api/users", srvr.postUsers).Methods(http.MethodPost)
	r.HandleFuncE("/api/users", srvr.getUsers).Methods(http.MethodGet)
	r.HandleFuncE("/api/users/{userID}", srvr.getUser).Methods(http.MethodGet)

	// Posts
	r.HandleFuncE("/api/users/{userID}/posts", srvr.postPosts).Methods(http.MethodPost)
	r.HandleFuncE("/api/users/{userID}/posts", srvr.getUserPosts).Methods(http.MethodGet)
	r.HandleFuncE("/api/posts/{postID}", srvr.getPost).Methods(http.MethodGet)

	// Feed
	r.HandleFuncE("/api/users/{userID}/feed", srvr.getFeed).Methods(http.MethodGet)

	// Follow graph
	r.HandleFuncE("/api/users/{userID}/following", srvr.getFollowing).Methods(http.MethodGet)
	r.HandleFuncE("/api/users/{userID}/following", srvr.postFollowing).Methods(http.MethodPost)
	r.HandleFuncE("/api/users/{userID}/following/{followeeID}", srvr.deleteFollowing).Methods(http.MethodDelete)

	slog.Debug("configured api server", "port", config.Port)

	return &srvr
}

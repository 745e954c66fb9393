package api

import (
	"html"
	"log/slog"
	"net/http"

	goaway "github.com/TwiN/go-away"
	"github.com/gorilla/mux"

	v1 "github.com/jdholdren/murmur/api/murmur/v1"
	seyerrs "github.com/jdholdren/murmur/internal/errors"
	"github.com/jdholdren/murmur/internal/murmur"
	"github.com/jdholdren/murmur/internal/serverutil"
	"github.com/jdholdren/murmur/logger"
)

func apiPost(p murmur.Post) v1.Post {
	return v1.Post{
		ID:            p.ID,
		AuthorID:      p.AuthorID,
		Content:       p.Content,
		Timestamp:     p.Timestamp,
		PublishedAt:   p.PublishedAt(),
		PredecessorID: p.PredecessorID,
	}
}

func apiPosts(posts []murmur.Post, limit int) v1.PostList {
	resp := v1.PostList{
		Posts: make([]v1.Post, 0, len(posts)),
		Limit: limit,
	}
	for _, p := range posts {
		resp.Posts = append(resp.Posts, apiPost(p))
	}

	return resp
}

func (s Server) postPosts(w http.ResponseWriter, r *http.Request) error {
	var (
		ctx      = r.Context()
		authorID = mux.Vars(r)["userID"]
	)
	ctx = logger.Ctx(ctx, slog.String("user_id", authorID))

	body, err := serverutil.DecodeValid[v1.PublishRequest](r.Body)
	if err != nil {
		return err
	}

	// Posts are plain text: markup is dropped and the entities the sanitizer
	// escapes are turned back into the characters the author typed.
	content := html.UnescapeString(s.sanitizer.Sanitize(body.Content))
	if goaway.IsProfane(content) {
		return seyerrs.E("profanity detected in content", http.StatusUnprocessableEntity)
	}

	post, err := s.core.Publisher.Publish(ctx, authorID, content)
	if err != nil {
		return err
	}
	s.metrics.PostPublished()
	slog.InfoContext(ctx, "published post", "post_id", post.ID)

	return serverutil.WriteJSON(w, http.StatusCreated, apiPost(post))
}

func (s Server) getUserPosts(w http.ResponseWriter, r *http.Request) error {
	var (
		ctx      = r.Context()
		authorID = mux.Vars(r)["userID"]
	)

	limit, err := parseLimit(r, s.timelineLimits)
	if err != nil {
		return err
	}

	posts, err := s.core.Timelines.Timeline(ctx, authorID, limit)
	if err != nil {
		return err
	}

	return serverutil.WriteJSON(w, http.StatusOK, apiPosts(posts, limit))
}

func (s Server) getPost(w http.ResponseWriter, r *http.Request) error {
	post, err := s.core.Timelines.Post(r.Context(), mux.Vars(r)["postID"])
	if err != nil {
		return err
	}

	return serverutil.WriteJSON(w, http.StatusOK, apiPost(post))
}

// Package v1 holds the request and response bodies of the murmur HTTP API.
package v1

import (
	"net/http"
	"strings"
	"time"

	seyerrs "github.com/jdholdren/murmur/internal/errors"
)

type (
	CreateUserRequest struct {
		Name string `json:"name"`
	}

	PublishRequest struct {
		Content string `json:"content"`
	}

	FollowRequest struct {
		FolloweeID string `json:"followee_id"`
	}

	User struct {
		ID         string   `json:"id"`
		Name       string   `json:"name"`
		HeadPostID *string  `json:"head_post_id"`
		Following  []string `json:"following,omitempty"`
	}

	UserList struct {
		Users []User `json:"users"`
	}

	Post struct {
		ID            string    `json:"id"`
		AuthorID      string    `json:"author_id"`
		Content       string    `json:"content"`
		Timestamp     int64     `json:"timestamp"`
		PublishedAt   time.Time `json:"published_at"`
		PredecessorID *string   `json:"predecessor_id"`
	}

	PostList struct {
		Posts []Post `json:"posts"`
		Limit int    `json:"limit"`
	}

	Following struct {
		UserID    string   `json:"user_id"`
		Following []string `json:"following"`
	}
)

func (r CreateUserRequest) Validate() error {
	var errs []seyerrs.Detail
	if strings.TrimSpace(r.Name) == "" {
		errs = append(errs, seyerrs.Detail{Field: "name", Error: "required"})
	}
	if len(errs) > 0 {
		return seyerrs.E("invalid request", http.StatusBadRequest, errs)
	}

	return nil
}

func (r PublishRequest) Validate() error {
	var errs []seyerrs.Detail
	if strings.TrimSpace(r.Content) == "" {
		errs = append(errs, seyerrs.Detail{Field: "content", Error: "required"})
	}
	if len(errs) > 0 {
		return seyerrs.E("invalid request", http.StatusBadRequest, errs)
	}

	return nil
}

func (r FollowRequest) Validate() error {
	var errs []seyerrs.Detail
	if r.FolloweeID == "" {
		errs = append(errs, seyerrs.Detail{Field: "followee_id", Error: "required"})
	}
	if len(errs) > 0 {
		return seyerrs.E("invalid request", http.StatusBadRequest, errs)
	}

	return nil
}

package api

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/tonyzorin/youtrack-mcp/tracker"
)

// loginLookupLimit bounds the candidate list scanned for an exact login.
const loginLookupLimit = 50

// Users performs user lookups.
type Users struct {
	client *tracker.Client
}

// Current returns the authenticated user with the full field set.
func (s *Users) Current(ctx context.Context) (*User, error) {
	user := &User{}
	if err := s.client.Get(ctx, "users/me", fieldsQuery(UserFullFields), user); err != nil {
		return nil, err
	}
	return user, nil
}

// Search finds users matching query.
func (s *Users) Search(ctx context.Context, query string, limit int) ([]*User, error) {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	values := url.Values{
		"fields": {UserFields},
		"$top":   {strconv.Itoa(limit)},
	}
	if query = strings.TrimSpace(query); query != "" {
		values.Set("query", query)
	}
	var users []*User
	if err := s.client.Get(ctx, "users", values, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// All returns users with the bundle projection used for user field validation.
func (s *Users) All(ctx context.Context) ([]*User, error) {
	var users []*User
	if err := s.client.Get(ctx, "users", fieldsQuery("id,login,name,email"), &users); err != nil {
		return nil, err
	}
	return users, nil
}

// Get returns a user by internal id.
func (s *Users) Get(ctx context.Context, id string) (*User, error) {
	if id = strings.TrimSpace(id); id == "" {
		return nil, tracker.BadInput("user id is required")
	}
	user := &User{}
	if err := s.client.Get(ctx, "users/"+url.PathEscape(id), fieldsQuery(UserFields), user); err != nil {
		return nil, err
	}
	return user, nil
}

// ByLogin returns the user whose login matches exactly.
func (s *Users) ByLogin(ctx context.Context, login string) (*User, error) {
	if login = strings.TrimSpace(login); login == "" {
		return nil, tracker.BadInput("login is required")
	}
	users, err := s.Search(ctx, login, loginLookupLimit)
	if err != nil {
		return nil, err
	}
	for _, user := range users {
		if strings.EqualFold(user.Login, login) {
			return user, nil
		}
	}
	return nil, tracker.NotFound("user with login %q not found", login)
}

// Groups returns a user with group membership.
func (s *Users) Groups(ctx context.Context, id string) (*User, error) {
	if id = strings.TrimSpace(id); id == "" {
		return nil, tracker.BadInput("user id is required")
	}
	user := &User{}
	if err := s.client.Get(ctx, "users/"+url.PathEscape(id), fieldsQuery(UserGroupFields), user); err != nil {
		return nil, err
	}
	return user, nil
}

package tool

import (
	"context"

	"github.com/tonyzorin/youtrack-mcp/api"
)

// UserTools exposes user lookups.
type UserTools struct {
	users *api.Users
}

// NewUserTools creates user tools.
func NewUserTools(service *api.Service) *UserTools {
	return &UserTools{users: service.Users}
}

func (t *UserTools) Name() string       { return "UserTools" }
func (t *UserTools) Category() Category { return CategoryGeneric }

func (t *UserTools) Definitions() []*Definition {
	user := required("user", "Internal user id")
	return []*Definition{
		{Name: "get_current_user", Description: "Get the authenticated user", Handler: t.handleCurrent},
		{Name: "search_users", Description: "Search users by name, login or email", Params: []*Param{
			required("query", "Search text"),
			typed(optional("limit", "Maximum number of users"), "integer"),
		}, Handler: t.handleSearch},
		{Name: "get_user", Description: "Get a user by id", Params: []*Param{user}, Handler: t.handleGet},
		{Name: "get_user_by_login", Description: "Get a user by exact login", Params: []*Param{
			required("login", "User login"),
		}, Handler: t.handleByLogin},
		{Name: "get_user_groups", Description: "Get a user with group membership", Params: []*Param{user}, Handler: t.handleGroups},
	}
}

func (t *UserTools) handleCurrent(ctx context.Context, _ Args) (interface{}, error) {
	return t.users.Current(ctx)
}

func (t *UserTools) handleSearch(ctx context.Context, args Args) (interface{}, error) {
	return t.users.Search(ctx, args.String("query"), args.Int("limit", api.DefaultSearchLimit))
}

func (t *UserTools) handleGet(ctx context.Context, args Args) (interface{}, error) {
	return t.users.Get(ctx, args.String("user"))
}

func (t *UserTools) handleByLogin(ctx context.Context, args Args) (interface{}, error) {
	return t.users.ByLogin(ctx, args.String("login"))
}

func (t *UserTools) handleGroups(ctx context.Context, args Args) (interface{}, error) {
	return t.users.Groups(ctx, args.String("user"))
}

package api

import (
	"cmp"
	"context"
	"slices"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/matheus3301/chatter/internal/store"
	"github.com/matheus3301/chatter/internal/wire"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	grpcstatus "google.golang.org/grpc/status"
)

func (s *Service) RegisterUser(ctx context.Context, req *wire.RegisterUserRequest) (*wire.RegisterUserResponse, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, grpcstatus.Error(codes.InvalidArgument, "name is required")
	}
	u := &store.User{
		ID:       callerID(ctx),
		Name:     name,
		Username: strings.TrimSpace(req.Username),
	}
	if err := s.db.UpsertUser(u); err != nil {
		return nil, internal("upsert user", err)
	}
	s.logger.Info("user registered", zap.String("user", u.ID), zap.String("name", u.Name))
	return &wire.RegisterUserResponse{User: userToWire(*u)}, nil
}

// SearchUsers lists the other registered users: alphabetically for an empty
// query, otherwise fuzzy-ranked on name and username.
func (s *Service) SearchUsers(ctx context.Context, req *wire.SearchUsersRequest) (*wire.SearchUsersResponse, error) {
	users, err := s.db.ListUsers(callerID(ctx))
	if err != nil {
		return nil, internal("list users", err)
	}

	matched := rankUsers(users, req.Query)
	if len(matched) > searchLimit {
		matched = matched[:searchLimit]
	}
	resp := &wire.SearchUsersResponse{Users: make([]wire.User, 0, len(matched))}
	for _, u := range matched {
		resp.Users = append(resp.Users, userToWire(u))
	}
	return resp, nil
}

func rankUsers(users []store.User, query string) []store.User {
	query = strings.TrimSpace(query)
	if query == "" {
		return users
	}
	targets := make([]string, len(users))
	for i, u := range users {
		targets[i] = u.Name + " " + u.Username
	}
	ranks := fuzzy.RankFindNormalizedFold(query, targets)
	slices.SortStableFunc(ranks, func(a, b fuzzy.Rank) int {
		return cmp.Compare(a.Distance, b.Distance)
	})
	out := make([]store.User, len(ranks))
	for i, r := range ranks {
		out[i] = users[r.OriginalIndex]
	}
	return out
}

func userToWire(u store.User) wire.User {
	return wire.User{ID: u.ID, Name: u.Name, Username: u.Username}
}

package db

import (
	"context"
	"fmt"
	"log/slog"
)

type UserSeeder interface {
	EnsureUser(ctx context.Context, username, password string) error
}

// RunDevSeed creates the demo accounts alice and bob (password "password").
func RunDevSeed(ctx context.Context, s UserSeeder) error {
	for _, name := range []string{"alice", "bob"} {
		if err := s.EnsureUser(ctx, name, "password"); err != nil {
			return fmt.Errorf("seed user %s: %w", name, err)
		}
		slog.Info("dev-seed: user ready", "username", name)
	}
	return nil
}

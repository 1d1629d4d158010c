package server

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/playperu/geogamer/internal/catalog"
)

// Seed fills an empty catalog from the embedded levels and, when an email
// is given, makes sure that admin exists with the given password.
// Running it again changes nothing except the admin password.
func Seed(ctx context.Context, logger *slog.Logger, levels *catalog.Store, admin *AdminDocStore, email, password string) error {
	if err := levels.Seed(ctx, logger); err != nil {
		return err
	}
	if email == "" {
		logger.Warn("no admin configured; admin endpoints are unusable until one is created")
		return nil
	}

	created, err := admin.EnsureAdmin(ctx, email, password)
	if err != nil {
		return fmt.Errorf("seeding admin: %w", err)
	}
	if created {
		logger.Info("admin created", "email", email)
	}
	return nil
}

package mongodb

import (
	"context"
	"errors"

	"github.com/rjoubert/tablebook/internal/config"
	"github.com/rjoubert/tablebook/internal/domain/user"
	"github.com/rjoubert/tablebook/internal/security"
)

// EnsureAdminUser creates the configured admin account if it does not exist
// yet. A no-op when the admin credentials are not configured.
func EnsureAdminUser(ctx context.Context, users *UsersRepo, cfg config.Config) error {
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		return nil
	}

	_, err := users.GetByEmail(ctx, cfg.AdminEmail)

	if err == nil {
		return nil
	}

	if !errors.Is(err, user.ErrNotFound) {
		return err
	}

	hash, err := security.HashPassword(cfg.AdminPassword)

	if err != nil {
		return err
	}

	_, err = users.Create(ctx, cfg.AdminEmail, hash, cfg.AdminName, user.RoleAdmin)

	if errors.Is(err, user.ErrEmailTaken) {
		// another instance seeded first
		return nil
	}

	return err
}

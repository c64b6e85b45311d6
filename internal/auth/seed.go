package auth

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/Rayjuxtnx/restaurant-server/pkg/config"
	"github.com/Rayjuxtnx/restaurant-server/pkg/db/models"
	"github.com/Rayjuxtnx/restaurant-server/pkg/enums"
	pkgerrors "github.com/Rayjuxtnx/restaurant-server/pkg/errors"
	"github.com/Rayjuxtnx/restaurant-server/pkg/logger"
	"github.com/Rayjuxtnx/restaurant-server/pkg/security"
)

const generatedPasswordLength = 24

type userSeeder interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) (*models.User, error)
}

// EnsureAdmin creates the configured admin account when it does not exist.
// With no password configured a temporary one is generated and logged, so a
// fresh deployment can sign in exactly once before rotating it.
func EnsureAdmin(ctx context.Context, repo userSeeder, cfg config.AdminConfig, passwordCfg config.PasswordConfig, logg *logger.Logger) error {
	email := strings.ToLower(strings.TrimSpace(cfg.Email))
	if email == "" {
		return nil
	}
	ctx = logg.WithField(ctx, "admin_email", email)

	if _, err := repo.FindByEmail(ctx, email); err == nil {
		return nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: find admin user")
	}

	password := cfg.Password
	generated := false
	if password == "" {
		var err error
		password, err = security.GenerateTempPassword(generatedPasswordLength)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate admin password")
		}
		generated = true
	}

	hash, err := security.HashPassword(password, passwordCfg)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash admin password")
	}

	if _, err := repo.Create(ctx, &models.User{
		Email:        email,
		Name:         cfg.Name,
		PasswordHash: hash,
		Role:         enums.UserRoleAdmin,
	}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: create admin user")
	}

	if generated {
		logg.Warn(logg.WithField(ctx, "temp_password", password), "auth.admin_seeded_with_generated_password")
	} else {
		logg.Info(ctx, "auth.admin_seeded")
	}
	return nil
}

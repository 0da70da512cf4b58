package app

import (
	"context"
	"fmt"

	rbacRepository "github.com/allisson/roleguard/internal/rbac/repository"
	rbacService "github.com/allisson/roleguard/internal/rbac/service"
	rbacUseCase "github.com/allisson/roleguard/internal/rbac/usecase"
)

// RoleGuard returns the role transition guard.
func (c *Container) RoleGuard() rbacService.RoleGuard {
	c.roleGuardInit.Do(func() {
		c.roleGuard = rbacService.NewRoleGuard()
	})
	return c.roleGuard
}

// AuditSigner returns the audit log signer.
func (c *Container) AuditSigner() rbacService.AuditSigner {
	c.auditSignerInit.Do(func() {
		c.auditSigner = rbacService.NewAuditSigner()
	})
	return c.auditSigner
}

// SigningKey returns the audit signing master key, or nil when signing is disabled.
func (c *Container) SigningKey() ([]byte, error) {
	var err error
	c.signingKeyInit.Do(func() {
		c.signingKey, err = c.initSigningKey()
		if err != nil {
			c.initErrors["signingKey"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["signingKey"]; exists {
		return nil, storedErr
	}
	return c.signingKey, nil
}

// UserRepository returns the user repository for the configured driver.
func (c *Container) UserRepository() (rbacUseCase.UserRepository, error) {
	var err error
	c.userRepositoryInit.Do(func() {
		c.userRepository, err = c.initUserRepository()
		if err != nil {
			c.initErrors["userRepository"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["userRepository"]; exists {
		return nil, storedErr
	}
	return c.userRepository, nil
}

// AuditLogRepository returns the audit log repository for the configured driver.
func (c *Container) AuditLogRepository() (rbacUseCase.AuditLogRepository, error) {
	var err error
	c.auditLogRepositoryInit.Do(func() {
		c.auditLogRepository, err = c.initAuditLogRepository()
		if err != nil {
			c.initErrors["auditLogRepository"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["auditLogRepository"]; exists {
		return nil, storedErr
	}
	return c.auditLogRepository, nil
}

// UserCache returns the permission cache, or nil when no cache is configured.
func (c *Container) UserCache() (rbacUseCase.UserCache, error) {
	var err error
	c.userCacheInit.Do(func() {
		c.userCache, err = c.initUserCache()
		if err != nil {
			c.initErrors["userCache"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["userCache"]; exists {
		return nil, storedErr
	}
	return c.userCache, nil
}

// AuditLogUseCase returns the audit log use case.
func (c *Container) AuditLogUseCase() (rbacUseCase.AuditLogUseCase, error) {
	var err error
	c.auditLogUseCaseInit.Do(func() {
		c.auditLogUseCase, err = c.initAuditLogUseCase()
		if err != nil {
			c.initErrors["auditLogUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["auditLogUseCase"]; exists {
		return nil, storedErr
	}
	return c.auditLogUseCase, nil
}

// AuthorizationUseCase returns the authorization use case.
func (c *Container) AuthorizationUseCase() (rbacUseCase.AuthorizationUseCase, error) {
	var err error
	c.authorizationUseCaseInit.Do(func() {
		c.authorizationUseCase, err = c.initAuthorizationUseCase()
		if err != nil {
			c.initErrors["authorizationUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["authorizationUseCase"]; exists {
		return nil, storedErr
	}
	return c.authorizationUseCase, nil
}

// initSigningKey loads the signing key, decrypting it through KMS when KMS_KEY_URI is set.
func (c *Container) initSigningKey() ([]byte, error) {
	if !c.config.AuditSigningEnabled {
		return nil, nil
	}

	loader := rbacService.NewSigningKeyLoader(rbacService.NewKeeperOpener())
	key, err := loader.Load(context.Background(), c.config.AuditSigningKey, c.config.KMSKeyURI)
	if err != nil {
		return nil, fmt.Errorf("failed to load audit signing key: %w", err)
	}
	return key, nil
}

// initUserRepository creates the user repository instance.
func (c *Container) initUserRepository() (rbacUseCase.UserRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for user repository: %w", err)
	}

	// Select the appropriate repository based on the database driver
	switch c.config.DBDriver {
	case "mysql":
		return rbacRepository.NewMySQLUserRepository(db), nil
	case "postgres":
		return rbacRepository.NewPostgreSQLUserRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initAuditLogRepository creates the audit log repository instance.
func (c *Container) initAuditLogRepository() (rbacUseCase.AuditLogRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for audit log repository: %w", err)
	}

	switch c.config.DBDriver {
	case "mysql":
		return rbacRepository.NewMySQLAuditLogRepository(db), nil
	case "postgres":
		return rbacRepository.NewPostgreSQLAuditLogRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initUserCache wraps the redis client. The returned interface stays nil without a client.
func (c *Container) initUserCache() (rbacUseCase.UserCache, error) {
	client, err := c.RedisClient()
	if err != nil {
		return nil, fmt.Errorf("failed to get redis client for user cache: %w", err)
	}
	if client == nil {
		return nil, nil
	}
	return rbacRepository.NewRedisUserCache(client, c.config.PermissionCacheTTL), nil
}

// initAuditLogUseCase creates the audit log use case with all its dependencies.
func (c *Container) initAuditLogUseCase() (rbacUseCase.AuditLogUseCase, error) {
	auditLogRepository, err := c.AuditLogRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get audit log repository for audit log use case: %w", err)
	}

	signingKey, err := c.SigningKey()
	if err != nil {
		return nil, fmt.Errorf("failed to get signing key for audit log use case: %w", err)
	}

	baseUseCase := rbacUseCase.NewAuditLogUseCase(auditLogRepository, c.AuditSigner(), signingKey)

	// Wrap with metrics if enabled
	if c.config.MetricsEnabled {
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return nil, fmt.Errorf("failed to get business metrics for audit log use case: %w", err)
		}
		return rbacUseCase.NewAuditLogUseCaseWithMetrics(baseUseCase, businessMetrics), nil
	}

	return baseUseCase, nil
}

// initAuthorizationUseCase creates the authorization use case with all its dependencies.
func (c *Container) initAuthorizationUseCase() (rbacUseCase.AuthorizationUseCase, error) {
	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for authorization use case: %w", err)
	}

	userRepository, err := c.UserRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get user repository for authorization use case: %w", err)
	}

	userCache, err := c.UserCache()
	if err != nil {
		return nil, fmt.Errorf("failed to get user cache for authorization use case: %w", err)
	}

	auditLogUseCase, err := c.AuditLogUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get audit log use case for authorization use case: %w", err)
	}

	baseUseCase := rbacUseCase.NewAuthorizationUseCase(
		txManager,
		userRepository,
		userCache,
		c.RoleGuard(),
		auditLogUseCase,
		c.Logger(),
	)

	// Wrap with metrics if enabled
	if c.config.MetricsEnabled {
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return nil, fmt.Errorf("failed to get business metrics for authorization use case: %w", err)
		}
		return rbacUseCase.NewAuthorizationUseCaseWithMetrics(baseUseCase, businessMetrics), nil
	}

	return baseUseCase, nil
}

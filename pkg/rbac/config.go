package rbac

// Config is the env representation of the service settings.
type Config struct {
	// AdminRoleName is the platform administrator role protected by the
	// last-admin and self-demotion guards.
	AdminRoleName string `env:"RBAC_ADMIN_ROLE" envDefault:"ROLE_ADMIN"`
}

// FromConfig translates cfg into service options.
func FromConfig(cfg Config) []Option {
	return []Option{WithAdminRole(cfg.AdminRoleName)}
}

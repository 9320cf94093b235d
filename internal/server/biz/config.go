package biz

// Config carries the settings the business services need.
type Config struct {
	Unit UnitConfig `conf:"unit" yaml:"unit" json:"unit"`
	Auth AuthConfig `conf:"auth" yaml:"auth" json:"auth"`
}

// UnitConfig identifies this unit. BaseURL is the absolute URL every cell
// URL hangs off, e.g. "https://unit.example".
type UnitConfig struct {
	BaseURL string `conf:"base_url" yaml:"base_url" json:"base_url"`
}

// AuthConfig configures token verification and the unit administrator
// accounts. Admin passwords are stored as bcrypt hashes.
type AuthConfig struct {
	JWTSecret string         `conf:"jwt_secret" yaml:"jwt_secret" json:"jwt_secret"`
	Admins    []AdminAccount `conf:"admins" yaml:"admins" json:"admins"`
}

type AdminAccount struct {
	Username     string `conf:"username" yaml:"username" json:"username"`
	PasswordHash string `conf:"password_hash" yaml:"password_hash" json:"password_hash"`
}

package config

// DBConfig describes the Postgres connection used for the login audit trail.
// Auditing is optional; with AuditEnabled false the gateway never touches
// Postgres.
type DBConfig struct {
	URL          string `env:"DATABASE_URL"`
	AuditEnabled bool   `env:"AUDIT_ENABLED" envDefault:"false"`
}

// RedisConfig describes the shared session storage.
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
}

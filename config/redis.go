package config

// RedisConfig contains Redis configuration for the session denylist.
// When Addr is empty the denylist is disabled and failed logins rely on
// provider-side deletion alone.
type RedisConfig struct {
	Addr     string `env:"ADDR"     envDefault:""`
	Password string `env:"PASSWORD" envDefault:""`
	DB       int    `env:"DB"       envDefault:"0"`
}

// Configured reports whether a denylist store can be built.
func (r *RedisConfig) Configured() bool {
	return r.Addr != ""
}

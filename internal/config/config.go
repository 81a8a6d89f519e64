package config

import "github.com/caarlos0/env/v9"

type Config struct {
	Port       string `env:"PORT" envDefault:"8080"`
	DBUser     string `env:"DB_USER,required"`
	DBPassword string `env:"DB_PASSWORD,required"`
	DBHost     string `env:"DB_HOST,required"` // e.g. tcp(host:3306) or unix(/var/run/mysqld/mysqld.sock)
	DBName     string `env:"DB_NAME,required"`
	DBPort     string `env:"DB_PORT" envDefault:"3306"`

	// MessageQuota caps the number of live messages a user may have; zero
	// or negative disables the quota.
	MessageQuota int `env:"MESSAGE_QUOTA" envDefault:"50"`
	// QuotaScope is "authored" (messages the user sent) or "mailbox"
	// (messages stored in the user's own conversations).
	QuotaScope    string `env:"QUOTA_SCOPE" envDefault:"authored"`
	TopicsPerPage int    `env:"TOPICS_PER_PAGE" envDefault:"10"`

	// RedisURL enables cache invalidation; empty means no cache layer.
	RedisURL string `env:"REDIS_URL"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

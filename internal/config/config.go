package config

import (
	"errors"
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config holds runtime configuration loaded from environment variables.
// A .env file loaded by the entrypoint acts as the static fallback source.
type Config struct {
	Port             string `env:"PORT" envDefault:"8080"`
	JWTSecret        string `env:"JWT_SECRET,required"`
	JWTIssuer        string `env:"JWT_ISSUER" envDefault:"biozen"`
	AccessTTLSeconds int64  `env:"ACCESS_TTL_SECONDS" envDefault:"86400"`

	FrontendURL string `env:"FRONTEND_URL" envDefault:"https://dev.biozen.rs"`

	MailFrom     string `env:"MAIL_FROM" envDefault:"no-reply@biozen.rs"`
	MailFromName string `env:"MAIL_FROM_NAME" envDefault:"BioZen Tracker"`
	SMTPHost     string `env:"SMTP_HOST"`
	SMTPPort     int    `env:"SMTP_PORT" envDefault:"587"`
	SMTPUsername string `env:"SMTP_USERNAME"`
	SMTPPassword string `env:"SMTP_PASSWORD"`

	OpenAIAPIKey  string `env:"OPENAI_API_KEY"`
	OpenAIBaseURL string `env:"OPENAI_BASE_URL" envDefault:"https://api.openai.com/v1/"`

	UploadDir string `env:"UPLOAD_DIR" envDefault:"uploads"`

	CorsOrigins []string `env:"CORS_ORIGINS"`

	DatabaseURL string `env:"-"`

	dbEnv databaseEnv
}

type databaseEnv struct {
	DatabaseURL string `env:"DATABASE_URL"`

	Host     string `env:"DB_HOST"`
	Port     string `env:"DB_PORT" envDefault:"5432"`
	Name     string `env:"DB_NAME"`
	User     string `env:"DB_USER"`
	Password string `env:"DB_PASSWORD"`

	SpringURL      string `env:"SPRING_DATASOURCE_URL"`
	SpringUser     string `env:"SPRING_DATASOURCE_USERNAME"`
	SpringPassword string `env:"SPRING_DATASOURCE_PASSWORD"`
	JDBCURL        string `env:"JDBC_DATABASE_URL"`
}

func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, err
	}
	if err := env.Parse(&cfg.dbEnv); err != nil {
		return Config{}, err
	}
	dsn, err := resolveDatabaseURL(cfg.dbEnv)
	if err != nil {
		return Config{}, err
	}
	cfg.DatabaseURL = dsn
	return cfg, nil
}

// dsnSource is one named way of discovering database credentials. Sources are
// evaluated in a fixed order at startup; the first complete one wins.
type dsnSource struct {
	name    string
	resolve func(databaseEnv) (string, bool)
}

var dsnSources = []dsnSource{
	{
		name: "DATABASE_URL",
		resolve: func(e databaseEnv) (string, bool) {
			return e.DatabaseURL, e.DatabaseURL != ""
		},
	},
	{
		name: "DB_HOST/DB_PORT/DB_NAME/DB_USER/DB_PASSWORD",
		resolve: func(e databaseEnv) (string, bool) {
			if e.Host == "" || e.Name == "" || e.User == "" {
				return "", false
			}
			return fmt.Sprintf("postgres://%s:%s@%s:%s/%s", e.User, e.Password, e.Host, e.Port, e.Name), true
		},
	},
	{
		name: "SPRING_DATASOURCE_URL",
		resolve: func(e databaseEnv) (string, bool) {
			if e.SpringURL == "" {
				return "", false
			}
			return jdbcToDSN(e.SpringURL, e.SpringUser, e.SpringPassword), true
		},
	},
	{
		name: "JDBC_DATABASE_URL",
		resolve: func(e databaseEnv) (string, bool) {
			if e.JDBCURL == "" {
				return "", false
			}
			return jdbcToDSN(e.JDBCURL, e.SpringUser, e.SpringPassword), true
		},
	},
}

func resolveDatabaseURL(e databaseEnv) (string, error) {
	for _, source := range dsnSources {
		if dsn, ok := source.resolve(e); ok {
			return dsn, nil
		}
	}
	return "", errors.New("no database configuration found: set DATABASE_URL, DB_* variables, or SPRING_DATASOURCE_URL")
}

// jdbcToDSN strips the jdbc: prefix cloud providers inject and folds separate
// username/password variables into the URL when it carries none itself.
func jdbcToDSN(url, user, password string) string {
	const prefix = "jdbc:"
	if len(url) > len(prefix) && url[:len(prefix)] == prefix {
		url = url[len(prefix):]
	}
	if user == "" {
		return url
	}
	for _, scheme := range []string{"postgresql://", "postgres://"} {
		if len(url) > len(scheme) && url[:len(scheme)] == scheme {
			rest := url[len(scheme):]
			if !containsUserInfo(rest) {
				return scheme + user + ":" + password + "@" + rest
			}
			return url
		}
	}
	return url
}

func containsUserInfo(hostPart string) bool {
	for i := 0; i < len(hostPart); i++ {
		switch hostPart[i] {
		case '@':
			return true
		case '/':
			return false
		}
	}
	return false
}

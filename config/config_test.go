package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "vidtube-accounts", cfg.AppName)
	assert.Equal(t, 15*time.Minute, cfg.AccessTTL)
	assert.Equal(t, 240*time.Hour, cfg.RefreshTTL)
	assert.Equal(t, "gcs", cfg.BlobDriver)
	assert.True(t, cfg.CookieSecure)
	assert.Equal(t, int64(8<<20), cfg.MaxUploadBytes)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("JWT_ACCESS_TTL", "2m")
	t.Setenv("BCRYPT_COST", "4")
	t.Setenv("COOKIE_SECURE", "false")
	t.Setenv("BLOB_DRIVER", "S3")
	t.Setenv("CORS_ALLOWED_ORIGINS", " http://a.test, ,http://b.test ")

	cfg := Load()

	assert.Equal(t, 2*time.Minute, cfg.AccessTTL)
	assert.Equal(t, 4, cfg.BcryptCost)
	assert.False(t, cfg.CookieSecure)
	assert.Equal(t, "s3", cfg.BlobDriver)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSOrigins())
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("JWT_REFRESH_TTL", "forever")
	t.Setenv("DB_MAX_CONNS", "many")
	t.Setenv("MAIL_SEND_ENABLED", "sometimes")

	cfg := Load()

	assert.Equal(t, 240*time.Hour, cfg.RefreshTTL)
	assert.Equal(t, int32(10), cfg.DBMaxConns)
	assert.False(t, cfg.MailSendEnabled)
}

func TestPostgresDSN(t *testing.T) {
	cfg := &Config{DBUser: "u", DBPassword: "p", DBHost: "h", DBPort: "5432", DBName: "d", DBSSLMode: "disable"}
	assert.Equal(t, "postgres://u:p@h:5432/d?sslmode=disable", cfg.PostgresDSN())
}

func TestPostgresDSN_EscapesCredentials(t *testing.T) {
	cfg := &Config{DBUser: "u", DBPassword: "p@ss/word", DBHost: "h", DBPort: "5432", DBName: "d", DBSSLMode: "require"}
	assert.Equal(t, "postgres://u:p%40ss%2Fword@h:5432/d?sslmode=require", cfg.PostgresDSN())
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		c := Load()
		c.Env = "production"
		c.JWTAccessSecret = "a-long-access-secret"
		c.JWTRefreshSecret = "a-long-refresh-secret"
		return c
	}
	assert.NoError(t, valid().Validate())
	assert.NoError(t, Load().Validate(), "development defaults are accepted")

	tests := map[string]func(c *Config){
		"dev secrets in production": func(c *Config) { c.JWTAccessSecret = devAccessSecret },
		"same secrets":              func(c *Config) { c.JWTRefreshSecret = c.JWTAccessSecret },
		"zero ttl":                  func(c *Config) { c.AccessTTL = 0 },
		"bcrypt cost":               func(c *Config) { c.BcryptCost = 3 },
		"blob driver":               func(c *Config) { c.BlobDriver = "ftp" },
		"upload limit":              func(c *Config) { c.MaxUploadBytes = 0 },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			c := valid()
			mutate(c)
			assert.Error(t, c.Validate())
		})
	}
}

package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"ROLLBACK_WINDOW", "ENCRYPT_KEY", "APP_NAME", "DB_MAX_CONNS", "MAIL_SEND_ENABLED"} {
		t.Setenv(key, "unset")
		require.NoError(t, os.Unsetenv(key))
	}

	cfg := Load()

	assert.Equal(t, "go-user-identity", cfg.AppName)
	assert.Equal(t, 60*time.Second, cfg.RollbackWindow)
	assert.Equal(t, "devencryptkey", cfg.EncryptKey)
	assert.Equal(t, int32(10), cfg.DBMaxConns)
	assert.True(t, cfg.MailSendEnabled)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("ROLLBACK_WINDOW", "90s")
	t.Setenv("ENCRYPT_KEY", "prod-key")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, ,https://b.example")

	cfg := Load()

	assert.Equal(t, 90*time.Second, cfg.RollbackWindow)
	assert.Equal(t, "prod-key", cfg.EncryptKey)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins())
}

func TestPostgresDSN(t *testing.T) {
	cfg := &Config{DBUser: "u", DBPassword: "p", DBHost: "h", DBPort: "5432", DBName: "d", DBSSLMode: "disable"}

	assert.Equal(t, "postgres://u:p@h:5432/d?sslmode=disable", cfg.PostgresDSN())
}

func TestTrustedProxyList(t *testing.T) {
	assert.Nil(t, (&Config{}).TrustedProxyList())
	assert.Nil(t, (&Config{TrustedProxies: " , "}).TrustedProxyList())
	assert.Equal(t, []string{"10.0.0.0/8", "192.0.2.1"}, (&Config{TrustedProxies: "10.0.0.0/8, 192.0.2.1"}).TrustedProxyList())
}

func TestLoad_ElasticsearchTimeout(t *testing.T) {
	t.Setenv("ELASTICSEARCH_TIMEOUT", "750ms")

	assert.Equal(t, 750*time.Millisecond, Load().ElasticsearchTTL)
}

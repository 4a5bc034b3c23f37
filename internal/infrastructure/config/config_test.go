package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	os.Setenv("DB_HOST", "db.internal")
	os.Setenv("DB_PORT", "5433")
	os.Setenv("DB_USER", "identity")
	os.Setenv("DB_PASSWORD", "secret")
	os.Setenv("DB_NAME", "identity_test")
	os.Setenv("PORT", "9090")
	os.Setenv("ACCOUNT_LINKING_STRATEGY", "multiple")
	os.Setenv("MICROSOFT_TENANT", "contoso")
	defer os.Clearenv()

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "db.internal", cfg.DBHost)
	assert.Equal(t, 5433, cfg.DBPort)
	assert.Equal(t, "identity_test", cfg.DBName)
	assert.Equal(t, 9090, cfg.ServerPort)
	assert.Equal(t, "multiple", cfg.AccountLinkingStrategy)
	assert.Equal(t, "contoso", cfg.Microsoft.Tenant)
}

func TestLoadConfig_Defaults(t *testing.T) {
	os.Clearenv()

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.DBHost)
	assert.Equal(t, 5432, cfg.DBPort)
	assert.Equal(t, 8080, cfg.ServerPort)
	assert.Equal(t, "single", cfg.AccountLinkingStrategy)
	assert.Equal(t, "common", cfg.Microsoft.Tenant)
}

func TestLoadConfig_InvalidPort(t *testing.T) {
	os.Clearenv()
	os.Setenv("DB_PORT", "not-a-port")
	defer os.Clearenv()

	_, err := LoadConfig()
	assert.Error(t, err)
}

package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSV(t *testing.T) {
	assert.Nil(t, CSV(""))
	assert.Equal(t, []string{"kafka:9092", "kafka2:9092"}, CSV(" kafka:9092, ,kafka2:9092 "))
}

func TestEnvHelpers(t *testing.T) {
	t.Setenv("ECOM_TEST_INT", "42")
	t.Setenv("ECOM_TEST_BAD_INT", "x")
	t.Setenv("ECOM_TEST_BOOL", "true")
	t.Setenv("ECOM_TEST_FLOAT", "2.5")

	assert.Equal(t, 42, EnvIntDefault("ECOM_TEST_INT", 1))
	assert.Equal(t, 1, EnvIntDefault("ECOM_TEST_BAD_INT", 1))
	assert.Equal(t, 7, EnvIntDefault("ECOM_TEST_MISSING", 7))
	assert.True(t, EnvBoolDefault("ECOM_TEST_BOOL", false))
	assert.Equal(t, 2.5, EnvFloatDefault("ECOM_TEST_FLOAT", 1))
	assert.Equal(t, "def", EnvDefault("ECOM_TEST_MISSING", "def"))
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("SERVER_PORT", "")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("PROTECT_CATALOG_WRITES", "")
	t.Setenv("ADMIN_USERNAME", "")
	t.Setenv("ADMIN_PASSWORD", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.ServerPort)
	assert.Equal(t, ":9090", cfg.Addr())
	assert.Equal(t, "products", cfg.ESIndex)
	assert.False(t, cfg.AuthEnabled())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{
			name:    "postgres without url",
			cfg:     Config{DBDriver: "postgres", ServerPort: 9090, MaxUploadMB: 1},
			wantErr: "DATABASE_URL",
		},
		{
			name:    "unknown driver",
			cfg:     Config{DBDriver: "mysql", ServerPort: 9090, MaxUploadMB: 1},
			wantErr: "unsupported DB_DRIVER",
		},
		{
			name:    "protected writes without secret",
			cfg:     Config{DBDriver: "sqlite", SQLitePath: "x.db", ServerPort: 9090, MaxUploadMB: 1, ProtectCatalogWrites: true},
			wantErr: "JWT_SECRET",
		},
		{
			name:    "admin without password",
			cfg:     Config{DBDriver: "sqlite", SQLitePath: "x.db", ServerPort: 9090, MaxUploadMB: 1, AdminUsername: "root"},
			wantErr: "ADMIN_PASSWORD",
		},
		{
			name: "valid sqlite",
			cfg:  Config{DBDriver: "sqlite", SQLitePath: "x.db", ServerPort: 9090, MaxUploadMB: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

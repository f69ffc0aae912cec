package config

import (
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapEnv map[string]string

func (m mapEnv) Lookup(key string) (string, bool) {
	v, ok := m[key]
	return v, ok
}

func encodedKeys(t *testing.T) (priv, pub string) {
	t.Helper()
	key, _, err := GenerateRSAKeyPair()
	require.NoError(t, err)

	pubDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)

	privPEM := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})
	pubPEM := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER})
	return base64.StdEncoding.EncodeToString(privPEM), base64.StdEncoding.EncodeToString(pubPEM)
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := load(mapEnv{})
	require.NoError(t, err)

	assert.Equal(t, "localhost:8080", cfg.Server.Address())
	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, []string{"*"}, cfg.Server.CORSAllowOrigins)
	assert.Equal(t, 24*time.Hour, cfg.JWT.AccessTokenDuration)
	assert.Equal(t, "finance-tracker-api", cfg.JWT.Audience)
	assert.Equal(t, 50000, cfg.Export.MaxRows)
	assert.Equal(t, "/storage", cfg.Storage.PublicPath)
	assert.NotNil(t, cfg.JWT.PrivateKey, "development generates an ephemeral keypair")
	assert.Equal(t,
		"host=localhost port=5432 user=finance_user password=finance_password dbname=finance_db sslmode=disable",
		cfg.Database.DSN())
}

func TestLoad_Overrides(t *testing.T) {
	cfg, err := load(mapEnv{
		"SERVER_PORT":               "9090",
		"DB_MAX_CONNECTIONS":        "50",
		"PASSWORD_REQUIRE_SPECIAL":  "true",
		"JWT_ACCESS_TOKEN_DURATION": "15m",
		"CORS_ALLOW_ORIGINS":        " https://a.example , ,https://b.example ",
		"LOG_LEVEL":                 "  debug ",
		"TRUSTED_PROXIES":           "10.0.0.0/8, 192.0.2.10",
	})
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 50, cfg.Database.MaxConnections)
	assert.True(t, cfg.Security.RequireSpecialChars)
	assert.Equal(t, 15*time.Minute, cfg.JWT.AccessTokenDuration)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.CORSAllowOrigins)
	assert.Equal(t, slog.LevelDebug, cfg.Log.SlogLevel())
	require.Len(t, cfg.Server.TrustedProxies, 2)
	assert.Equal(t, "10.0.0.0/8", cfg.Server.TrustedProxies[0].String())
	assert.Equal(t, "192.0.2.10/32", cfg.Server.TrustedProxies[1].String())
}

func TestLoad_ReportsEveryMalformedValue(t *testing.T) {
	_, err := load(mapEnv{
		"DB_MAX_CONNECTIONS":       "many",
		"PASSWORD_REQUIRE_NUMBERS": "sometimes",
		"SERVER_READ_TIMEOUT":      "15",
		"TRUSTED_PROXIES":          "10.0.0.0/33",
	})
	require.Error(t, err)

	assert.ErrorContains(t, err, `DB_MAX_CONNECTIONS="many"`)
	assert.ErrorContains(t, err, `PASSWORD_REQUIRE_NUMBERS="sometimes"`)
	assert.ErrorContains(t, err, `SERVER_READ_TIMEOUT="15"`)
	assert.ErrorContains(t, err, `TRUSTED_PROXIES="10.0.0.0/33"`)
}

func TestLoad_RejectsInconsistentValues(t *testing.T) {
	tests := map[string]mapEnv{
		"refresh shorter than access": {"JWT_ACCESS_TOKEN_DURATION": "48h", "JWT_REFRESH_TOKEN_DURATION": "1h"},
		"zero export limit":           {"EXPORT_MAX_ROWS": "0"},
		"negative avatar limit":       {"AVATAR_MAX_BYTES": "-1"},
		"relative public path":        {"STORAGE_PUBLIC_PATH": "storage"},
	}
	for name, env := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := load(env)
			assert.Error(t, err)
		})
	}
}

func TestLoad_ProductionRequiresKeys(t *testing.T) {
	_, err := load(mapEnv{"APP_ENV": "production"})
	assert.ErrorContains(t, err, "required in production")

	priv, pub := encodedKeys(t)
	cfg, err := load(mapEnv{"APP_ENV": "production", "JWT_PRIVATE_KEY": priv, "JWT_PUBLIC_KEY": pub})
	require.NoError(t, err)
	assert.True(t, cfg.UseJSON())
	assert.True(t, cfg.JWT.PrivateKey.PublicKey.Equal(cfg.JWT.PublicKey))
}

func TestLoadKeyPair_Errors(t *testing.T) {
	priv, pub := encodedKeys(t)
	_, otherPub := encodedKeys(t)

	tests := []struct {
		name    string
		env     mapEnv
		wantErr string
	}{
		{"bad base64", mapEnv{"JWT_PRIVATE_KEY": "%%%", "JWT_PUBLIC_KEY": pub}, "not valid base64"},
		{"no pem block", mapEnv{"JWT_PRIVATE_KEY": base64.StdEncoding.EncodeToString([]byte("plain")), "JWT_PUBLIC_KEY": pub}, "no PEM block"},
		{"swapped keys", mapEnv{"JWT_PRIVATE_KEY": pub, "JWT_PUBLIC_KEY": priv}, "JWT_PRIVATE_KEY"},
		{"mismatched pair", mapEnv{"JWT_PRIVATE_KEY": priv, "JWT_PUBLIC_KEY": otherPub}, "does not match"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loadKeyPair(tt.env, true)
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestUseJSON(t *testing.T) {
	cfg := &Config{Server: ServerConfig{Environment: "development"}}
	assert.False(t, cfg.UseJSON())

	cfg.Log.Format = "JSON"
	assert.True(t, cfg.UseJSON())

	cfg.Server.Environment = "production"
	cfg.Log.Format = "text"
	assert.False(t, cfg.UseJSON())
}

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeYAML(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dynastia.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("write yaml: %v", err)
	}
	return path
}

// neutralizeEnv limpia las variables que pisan los campos bajo test, para
// que el entorno del runner no contamine las aserciones.
func neutralizeEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"APP_ENV", "SERVER_ADDR", "JWT_ISSUER", "JWT_ACCESS_SECRET",
		"JWT_REFRESH_SECRET", "JWT_ACCESS_TTL", "JWT_REFRESH_TTL",
		"STORE_DRIVER", "POSTGRES_DSN", "REDIS_ADDR", "LOG_LEVEL", "LOG_FORMAT",
	} {
		t.Setenv(k, "")
	}
}

func TestLoad_YAMLWithDefaults(t *testing.T) {
	neutralizeEnv(t)
	path := writeYAML(t, `
jwt:
  access_secret: "acc-secret"
  refresh_secret: "ref-secret"
`)
	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load err: %v", err)
	}
	if c.Server.Addr != ":8080" {
		t.Fatalf("default addr: %q", c.Server.Addr)
	}
	if c.Store.Driver != DriverMemory {
		t.Fatalf("default driver: %q", c.Store.Driver)
	}
	if c.JWT.Issuer != "dynastia" {
		t.Fatalf("default issuer: %q", c.JWT.Issuer)
	}
	if got := c.AccessTTL(); got != 15*time.Minute {
		t.Fatalf("default access ttl: %v", got)
	}
	if got := c.RefreshTTL(); got != 168*time.Hour {
		t.Fatalf("default refresh ttl: %v", got)
	}
	if got := c.ShutdownTimeout(); got != 10*time.Second {
		t.Fatalf("default shutdown timeout: %v", got)
	}
}

func TestLoad_EnvOverridesYAML(t *testing.T) {
	neutralizeEnv(t)
	path := writeYAML(t, `
server:
  addr: ":9999"
jwt:
  access_secret: "yaml-acc"
  refresh_secret: "yaml-ref"
  access_ttl: "5m"
`)
	t.Setenv("SERVER_ADDR", ":7777")
	t.Setenv("JWT_ACCESS_SECRET", "env-acc")
	t.Setenv("JWT_ACCESS_TTL", "1m")

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load err: %v", err)
	}
	if c.Server.Addr != ":7777" {
		t.Fatalf("env should win: %q", c.Server.Addr)
	}
	if c.JWT.AccessSecret != "env-acc" {
		t.Fatalf("env should win: %q", c.JWT.AccessSecret)
	}
	if c.AccessTTL() != time.Minute {
		t.Fatalf("env ttl should win: %v", c.AccessTTL())
	}
	// lo no pisado queda del YAML
	if c.JWT.RefreshSecret != "yaml-ref" {
		t.Fatalf("yaml value lost: %q", c.JWT.RefreshSecret)
	}
}

func TestLoad_EmptyPathUsesEnvOnly(t *testing.T) {
	neutralizeEnv(t)
	t.Setenv("JWT_ACCESS_SECRET", "acc")
	t.Setenv("JWT_REFRESH_SECRET", "ref")
	c, err := Load("")
	if err != nil {
		t.Fatalf("Load err: %v", err)
	}
	if c.Store.Driver != DriverMemory {
		t.Fatalf("default driver: %q", c.Store.Driver)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	neutralizeEnv(t)
	if _, err := Load(filepath.Join(t.TempDir(), "no-such.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoad_BadDuration(t *testing.T) {
	neutralizeEnv(t)
	path := writeYAML(t, `
jwt:
  access_secret: "acc"
  refresh_secret: "ref"
  access_ttl: "quince minutos"
`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for bad duration")
	}
}

// El arranque no admite secretos ausentes ni compartidos: si access y
// refresh firmaran igual, un refresh token serviría como access token.
func TestValidate_SecretInvariants(t *testing.T) {
	mk := func(acc, ref string) *Config {
		var c Config
		c.JWT.AccessSecret = acc
		c.JWT.RefreshSecret = ref
		c.Store.Driver = DriverMemory
		return &c
	}
	if err := mk("", "ref").Validate(); err == nil {
		t.Fatal("expected error: access secret vacío")
	}
	if err := mk("acc", "").Validate(); err == nil {
		t.Fatal("expected error: refresh secret vacío")
	}
	if err := mk("same", "same").Validate(); err == nil {
		t.Fatal("expected error: secretos iguales")
	}
	if err := mk("acc", "ref").Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
}

func TestValidate_DriverRequirements(t *testing.T) {
	base := func(driver string) *Config {
		var c Config
		c.JWT.AccessSecret = "acc"
		c.JWT.RefreshSecret = "ref"
		c.Store.Driver = driver
		return &c
	}

	if err := base(DriverPostgres).Validate(); err == nil || !strings.Contains(err.Error(), "dsn") {
		t.Fatalf("postgres sin dsn: %v", err)
	}
	c := base(DriverPostgres)
	c.Store.Postgres.DSN = "postgres://localhost/dynastia"
	if err := c.Validate(); err != nil {
		t.Fatalf("postgres con dsn: %v", err)
	}

	if err := base(DriverRedis).Validate(); err == nil || !strings.Contains(err.Error(), "addr") {
		t.Fatalf("redis sin addr: %v", err)
	}

	if err := base("cassandra").Validate(); err == nil {
		t.Fatal("driver desconocido debe fallar")
	}
}

package config

import (
	"os"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	viper.Reset()
	chdir(t, t.TempDir())

	cfg := Load()
	assert.Equal(t, "8080", cfg.App.Port)
	assert.Equal(t, "18", cfg.POS.GSTRate.String())
	assert.Equal(t, 3*time.Second, cfg.POS.DedupeWindow)
	assert.Equal(t, 4*time.Second, cfg.POS.StatusTTL)
	assert.Equal(t, "retail", cfg.POS.CustomerType)
	assert.Equal(t, "online", cfg.POS.OrderType)
	assert.Equal(t, "static", cfg.Auth.Mode)
	assert.Equal(t, "none", cfg.Printer.Type)
	assert.Equal(t, 42, cfg.Printer.CharWidth)
	assert.False(t, cfg.Database.Enabled)
}

func TestLoad_Environment(t *testing.T) {
	viper.Reset()
	chdir(t, t.TempDir())
	t.Setenv("POS_GST_RATE", "12.5")
	t.Setenv("POS_DEDUPE_WINDOW", "1500ms")
	t.Setenv("AUTH_MODE", "gateway")
	t.Setenv("PRINTER_TYPE", "network")
	t.Setenv("PRINTER_ADDRESS", "10.0.0.5:9100")
	t.Setenv("DB_ENABLED", "true")

	cfg := Load()
	assert.Equal(t, "12.5", cfg.POS.GSTRate.String())
	assert.Equal(t, 1500*time.Millisecond, cfg.POS.DedupeWindow)
	assert.Equal(t, "gateway", cfg.Auth.Mode)
	assert.Equal(t, "10.0.0.5:9100", cfg.Printer.Address)
	assert.True(t, cfg.Database.Enabled)
}

func TestLoad_InvalidGSTRate(t *testing.T) {
	viper.Reset()
	chdir(t, t.TempDir())
	t.Setenv("POS_GST_RATE", "eighteen")

	assert.Equal(t, "18", Load().POS.GSTRate.String())
}

func TestDatabaseConfig_DSN(t *testing.T) {
	c := DatabaseConfig{Host: "db", User: "u", Password: "p", Name: "n", Port: "5432", SSLMode: "disable", Timezone: "UTC"}
	assert.Equal(t, "host=db user=u password=p dbname=n port=5432 sslmode=disable TimeZone=UTC", c.DSN())
}

// chdir mirrors testing.T.Chdir (Go 1.24+) for older toolchains.
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(wd); err != nil {
			t.Fatal(err)
		}
	})
}

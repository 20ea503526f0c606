package clconfig

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/andskur/argon2-hashing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyDefaults(t *testing.T) {
	conf := &Config{}
	ApplyDefaults(conf)

	assert.Equal(t, "localhost:3000", conf.Listen.Website)
	assert.Equal(t, "./static", conf.StaticPath)
	assert.Equal(t, "info", conf.Logger.Level)
	assert.Equal(t, DefaultResumeURL, conf.Resume.URL)
	assert.Equal(t, DefaultSheetID, conf.Sheets.SheetID)
	assert.Equal(t, DefaultAppendRange, conf.Sheets.AppendRange)
	assert.Equal(t, DefaultReadRange, conf.Sheets.ReadRange)
	assert.Equal(t, "ipapi", conf.Geo.Provider)
	assert.Equal(t, DefaultIPAPIURL, conf.Geo.URL)
	assert.Equal(t, DefaultGeoTimeout, conf.Geo.Timeout)
	assert.Equal(t, 30, conf.Archive.RetentionDays)
	assert.Equal(t, int64(30), conf.Stats.RateLimit)
}

func TestApplyDefaultsPort(t *testing.T) {
	conf := &Config{Listen: ListenConfig{Website: "127.0.0.1:8080", Port: "4000"}}
	ApplyDefaults(conf)
	assert.Equal(t, "0.0.0.0:4000", conf.Listen.Website)

	conf = &Config{Listen: ListenConfig{Website: ":9000"}}
	ApplyDefaults(conf)
	assert.Equal(t, "localhost:9000", conf.Listen.Website)
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("GOOGLE_CREDENTIALS", `{"type":"service_account"}`)
	t.Setenv("SHEET_ID", "sheet-42")
	t.Setenv("RESUME_URL", "https://example.com/cv.pdf")
	t.Setenv("NODE_ENV", "production")
	t.Setenv("PORT", "8081")
	t.Setenv("GEO_TIMEOUT", "2s")

	conf := &Config{Sheets: SheetsConfig{SheetID: "from-yaml"}}
	require.NoError(t, ApplyEnv(conf))
	ApplyDefaults(conf)

	assert.Equal(t, "sheet-42", conf.Sheets.SheetID)
	assert.Equal(t, "https://example.com/cv.pdf", conf.Resume.URL)
	assert.Equal(t, "0.0.0.0:8081", conf.Listen.Website)
	assert.Equal(t, 2*time.Second, conf.Geo.Timeout)
	assert.False(t, conf.Development())
}

func TestDevelopment(t *testing.T) {
	conf := &Config{}
	assert.True(t, conf.Development())

	conf.Sheets.Credentials = `{"type":"service_account"}`
	assert.False(t, conf.Development())

	conf.NodeEnv = "development"
	assert.True(t, conf.Development())
}

func TestSheetsCredentialsFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "creds.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"type":"service_account"}`), 0o600))

	conf := &Config{Sheets: SheetsConfig{CredentialsFile: path}}
	assert.Equal(t, `{"type":"service_account"}`, conf.SheetsCredentials())
	assert.False(t, conf.Development())

	conf.Sheets.CredentialsFile = filepath.Join(t.TempDir(), "missing.json")
	assert.Empty(t, conf.SheetsCredentials())
	assert.True(t, conf.Development())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"unknown geo provider", func(c *Config) { c.Geo.Provider = "nope" }, true},
		{"maxmind without db", func(c *Config) { c.Geo.Provider = "maxmind" }, true},
		{"maxmind with db", func(c *Config) { c.Geo.Provider = "maxmind"; c.Geo.CityDB = "city.mmdb" }, false},
		{"archive sqlite without path", func(c *Config) { c.Archive.Enabled = true }, true},
		{"archive mysql without dsn", func(c *Config) { c.Archive.Enabled = true; c.Archive.Db = "mysql" }, true},
		{"archive unknown db", func(c *Config) { c.Archive.Enabled = true; c.Archive.Db = "pg" }, true},
		{"short stats password", func(c *Config) { c.Stats.Login = "admin"; c.Stats.Pass = "short" }, true},
		{"stats password without login", func(c *Config) { c.Stats.Pass = "long-enough-password" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conf := &Config{}
			ApplyDefaults(conf)
			tt.mutate(conf)
			err := Validate(conf)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadHashesStatsPassword(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("stats:\n  login: admin\n  pass: stats-password\n"), 0o644))

	conf, err := Load(path)
	require.NoError(t, err)
	assert.Empty(t, conf.Stats.Pass)
	require.NotEmpty(t, conf.Stats.Hash)
	assert.NoError(t, argon2.CompareHashAndPassword([]byte(conf.Stats.Hash), []byte("stats-password")))

	// le hash est réécrit dans le fichier
	reloaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Empty(t, reloaded.Stats.Pass)
	assert.Equal(t, conf.Stats.Hash, reloaded.Stats.Hash)
}

func TestLoadKeepsEnvironmentOutOfFile(t *testing.T) {
	t.Setenv("GOOGLE_CREDENTIALS", `{"private_key":"SECRET-KEY"}`)
	t.Setenv("ARCHIVE_DSN", "user:secret@tcp(db:3306)/visits")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("RESUME_URL", "https://example.com/env.pdf")

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("stats:\n  login: admin\n  pass: stats-password\n"), 0o644))

	conf, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, `{"private_key":"SECRET-KEY"}`, conf.Sheets.Credentials)
	assert.Equal(t, "redis:6379", conf.Redis.Addr)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)
	assert.NotContains(t, content, "SECRET-KEY")
	assert.NotContains(t, content, "user:secret")
	assert.NotContains(t, content, "redis:6379")
	assert.NotContains(t, content, "env.pdf")
	assert.NotContains(t, content, "stats-password")

	reloaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "admin", reloaded.Stats.Login)
	assert.Equal(t, conf.Stats.Hash, reloaded.Stats.Hash)
	assert.Empty(t, reloaded.Sheets.Credentials)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestLoadConfigErrors(t *testing.T) {
	conf, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, &Config{}, conf)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("listen: [unterminated"), 0o644))
	_, err = LoadConfig(path)
	assert.Error(t, err)
}

func TestCreateExampleConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "example.yaml")
	filename, err := CreateExampleConfig(path)
	require.NoError(t, err)
	assert.Equal(t, path, filename)

	conf, err := LoadConfig(filename)
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:3000", conf.Listen.Website)
	assert.Equal(t, DefaultResumeURL, conf.Resume.URL)
	assert.Equal(t, "ipapi", conf.Geo.Provider)
	assert.NoError(t, Validate(conf))
}

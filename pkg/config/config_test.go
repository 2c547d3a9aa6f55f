package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wg-deploy/pkg/model"
)

func stubEnv(t *testing.T, env map[string]string) {
	t.Helper()
	orig := lookupEnv
	lookupEnv = func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
	t.Cleanup(func() { lookupEnv = orig })
}

func TestLoad_DefaultsOnly(t *testing.T) {
	stubEnv(t, nil)

	cfg, err := Load("", "", Layer{})
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_Layering(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(file, []byte("port: 51000\npeers: 2\ntimezone: Europe/Berlin\nimage: example/wg:1\n"), 0o644))
	dotenv := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(dotenv, []byte("WG_PEERS=4\nWG_CONFIG_DIR=/srv/wg\n"), 0o644))
	stubEnv(t, map[string]string{EnvPeers: "5"})

	cfg, err := Load(file, dotenv, Flags(model.DeploymentConfig{Port: 51820, AutoConfirm: true}, true, false))
	require.NoError(t, err)

	assert.Equal(t, 51820, cfg.Port, "flag wins over file")
	assert.Equal(t, 5, cfg.Peers, "process env wins over .env and file")
	assert.Equal(t, "/srv/wg", cfg.ConfigDir, ".env wins over default")
	assert.Equal(t, "Europe/Berlin", cfg.Timezone)
	assert.Equal(t, "example/wg:1", cfg.Image)
	assert.Equal(t, DefaultContainerName, cfg.ContainerName)
	assert.True(t, cfg.AutoConfirm)
}

func TestLoad_MissingDotEnvIsIgnored(t *testing.T) {
	stubEnv(t, nil)
	_, err := Load("", filepath.Join(t.TempDir(), ".env"), Layer{})
	assert.NoError(t, err)
}

func TestLoadFile_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadFile(filepath.Join(dir, "absent.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("portt: 1\n"), 0o644))
	_, err = LoadFile(bad)
	assert.Error(t, err, "unknown keys are rejected")

	empty := filepath.Join(dir, "empty.yaml")
	require.NoError(t, os.WriteFile(empty, nil, 0o644))
	cfg, err := LoadFile(empty)
	require.NoError(t, err)
	assert.Equal(t, Layer{}, cfg)
}

func TestFromEnv(t *testing.T) {
	cfg, err := FromEnv(map[string]string{
		EnvPort:          "51821",
		EnvPeers:         "3",
		EnvAutoConfirm:   "true",
		EnvServerAddress: " vpn.example.org ",
	})
	require.NoError(t, err)
	assert.Equal(t, 51821, cfg.Port)
	assert.Equal(t, 3, cfg.Peers)
	assert.True(t, cfg.PortSet)
	assert.True(t, cfg.PeersSet)
	assert.True(t, cfg.AutoConfirm)
	assert.Equal(t, "vpn.example.org", cfg.ServerAddress)

	_, err = FromEnv(map[string]string{EnvPort: "abc"})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, EnvPort, verr.Field)

	_, err = FromEnv(map[string]string{EnvAutoConfirm: "sometimes"})
	assert.Error(t, err)
}

func TestMerge_AutoConfirmOnlySwitchesOn(t *testing.T) {
	base := Default()
	base.AutoConfirm = true
	merged := Merge(base, Layer{})
	assert.True(t, merged.AutoConfirm)
}

func TestValidate(t *testing.T) {
	valid := Default()
	require.NoError(t, Validate(valid))

	tests := []struct {
		name   string
		mutate func(*model.DeploymentConfig)
		field  string
	}{
		{"port zero", func(c *model.DeploymentConfig) { c.Port = 0 }, "port"},
		{"port too high", func(c *model.DeploymentConfig) { c.Port = 65536 }, "port"},
		{"no peers", func(c *model.DeploymentConfig) { c.Peers = 0 }, "peers"},
		{"relative dir", func(c *model.DeploymentConfig) { c.ConfigDir = "wg" }, "config dir"},
		{"empty name", func(c *model.DeploymentConfig) { c.ContainerName = " " }, "container name"},
		{"empty image", func(c *model.DeploymentConfig) { c.Image = "" }, "image"},
		{"bad address", func(c *model.DeploymentConfig) { c.ServerAddress = "<html>" }, "server address"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := Validate(cfg)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestValidAddress(t *testing.T) {
	for _, ok := range []string{"203.0.113.5", "2001:db8::1", "vpn.example.org", "host-1", "example.org."} {
		assert.True(t, validAddress(ok), ok)
	}
	for _, bad := range []string{"", "has space", "<html>", "-lead.example.org", "a..b"} {
		assert.False(t, validAddress(bad), bad)
	}
}

func TestLoad_ExplicitZeroIsRejected(t *testing.T) {
	tests := []struct {
		name  string
		env   map[string]string
		yaml  string
		flags Layer
		field string
	}{
		{name: "env port", env: map[string]string{EnvPort: "0"}, field: "port"},
		{name: "env peers", env: map[string]string{EnvPeers: "0"}, field: "peers"},
		{name: "flag port", flags: Flags(model.DeploymentConfig{}, true, false), field: "port"},
		{name: "flag peers", flags: Flags(model.DeploymentConfig{}, false, true), field: "peers"},
		{name: "file port", yaml: "port: 0\n", field: "port"},
		{name: "flag zero beats env", env: map[string]string{EnvPort: "51000"}, flags: Flags(model.DeploymentConfig{}, true, false), field: "port"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stubEnv(t, tt.env)
			file := ""
			if tt.yaml != "" {
				file = filepath.Join(t.TempDir(), "config.yaml")
				require.NoError(t, os.WriteFile(file, []byte(tt.yaml), 0o644))
			}
			cfg, err := Load(file, "", tt.flags)
			require.NoError(t, err)

			var verr *ValidationError
			require.ErrorAs(t, Validate(cfg), &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestLoad_UnsetNumbersKeepLowerLayer(t *testing.T) {
	stubEnv(t, map[string]string{EnvPort: "51000"})
	cfg, err := Load("", "", Flags(model.DeploymentConfig{}, false, false))
	require.NoError(t, err)
	assert.Equal(t, 51000, cfg.Port)
	assert.Equal(t, DefaultPeers, cfg.Peers)
}

func TestLoadFile_RecordsNumericKeys(t *testing.T) {
	file := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(file, []byte("peers: 2\ntimezone: Etc/UTC\n"), 0o644))
	l, err := LoadFile(file)
	require.NoError(t, err)
	assert.False(t, l.PortSet)
	assert.True(t, l.PeersSet)
	assert.Equal(t, 2, l.Peers)
}

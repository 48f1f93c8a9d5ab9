package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoadConfig_Discovery(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, configFileName), `
port: 9090
backend: local
dataDir: data
catalog: /etc/ddbx/catalog.yaml
`)
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	cfg, path, err := LoadConfig("", nested)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, configFileName), path)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, backendLocal, cfg.Backend)
	assert.Equal(t, filepath.Join(root, "data"), cfg.DataDir, "relative paths resolve against the file")
	assert.Equal(t, "/etc/ddbx/catalog.yaml", cfg.Catalog)
	assert.Equal(t, "ap-southeast-1", cfg.Region, "unset keys keep their defaults")
}

func TestLoadConfig_Explicit(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yaml")
	writeFile(t, path, "backend: local\n")

	cfg, got, err := LoadConfig(path, "")
	require.NoError(t, err)
	assert.Equal(t, path, got)
	assert.Equal(t, backendLocal, cfg.Backend)
	assert.Equal(t, 8080, cfg.Port)

	_, _, err = LoadConfig(filepath.Join(dir, "missing.yaml"), "")
	assert.ErrorIs(t, err, os.ErrNotExist)

	writeFile(t, path, "port: [")
	_, _, err = LoadConfig(path, "")
	assert.ErrorContains(t, err, "parse")
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"AWS_PROFILE": "uat",
		"AWS_REGION":  "us-east-1",
		"PORT":        "3000",
	}
	cfg := defaultConfig().applyEnv(func(k string) string { return env[k] })
	assert.Equal(t, "uat", cfg.Profile)
	assert.Equal(t, "us-east-1", cfg.Region)
	assert.Equal(t, 3000, cfg.Port)

	cfg = defaultConfig().applyEnv(func(k string) string {
		if k == "PORT" {
			return "not-a-port"
		}
		return ""
	})
	assert.Equal(t, 8080, cfg.Port)
}

func TestValidate(t *testing.T) {
	cfg := defaultConfig()
	require.NoError(t, cfg.Validate())

	bad := cfg
	bad.Backend = "sqlite"
	assert.ErrorContains(t, bad.Validate(), `unknown backend "sqlite"`)

	bad = cfg
	bad.Port = 70000
	assert.ErrorContains(t, bad.Validate(), "invalid port")

	bad = cfg
	bad.Seed = "seed.json"
	assert.ErrorContains(t, bad.Validate(), "seed requires the local backend")
}

func TestQueryCommand_LocalSeed(t *testing.T) {
	dir := t.TempDir()
	seedPath := filepath.Join(dir, "seed.json")
	writeFile(t, seedPath, `{
  "non-prod-uat": {
    "progress": [
      {"onboard_id": "OB-1", "phone_number": "0901", "device_id": "d1", "step": 12345678901234567890}
    ]
  }
}`)
	cfgPath := filepath.Join(dir, configFileName)
	writeFile(t, cfgPath, "backend: aws\n")

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{
		"--config", cfgPath,
		"--backend", "local",
		"--seed", seedPath,
		"query", "--table", "progress", "-k", "onboard_id=OB-1", "--mode", "compact",
	})
	require.NoError(t, cmd.Execute())

	assert.Contains(t, out.String(), "1 item")
	assert.Contains(t, out.String(), "12345678901234567890")
}

func TestQueryCommand_Errors(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, configFileName)
	writeFile(t, cfgPath, "backend: local\n")

	tests := []struct {
		name string
		args []string
		want string
	}{
		{
			name: "missing table flag",
			args: []string{"query"},
			want: `required flag(s) "table" not set`,
		},
		{
			name: "bad mode",
			args: []string{"query", "--table", "progress", "--mode", "grid"},
			want: "grid",
		},
		{
			name: "bad backend",
			args: []string{"--backend", "sqlite", "version"},
			want: "unknown backend",
		},
		{
			name: "missing catalog",
			args: []string{"--catalog", filepath.Join(dir, "missing.yaml"), "query", "--table", "progress"},
			want: "load table configuration: ",
		},
		{
			name: "whoami on local",
			args: []string{"whoami"},
			want: "whoami requires the aws backend",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := newRootCmd()
			cmd.SetOut(&bytes.Buffer{})
			cmd.SetErr(&bytes.Buffer{})
			cmd.SetArgs(append([]string{"--config", cfgPath}, tt.args...))
			err := cmd.Execute()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--config", filepath.Join(t.TempDir(), "missing.yaml"), "version"})
	assert.Error(t, cmd.Execute(), "an explicit config file must exist")

	dir := t.TempDir()
	cfgPath := filepath.Join(dir, configFileName)
	writeFile(t, cfgPath, "backend: local\n")
	cmd = newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--config", cfgPath, "version"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "ddbx version "+version)
}

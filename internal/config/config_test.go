package config

import (
	"os"
	"path/filepath"
	"testing"

	"s2klaunch/cli/internal/project"
	"s2klaunch/cli/internal/transport"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeFilename(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "empty yields default", in: "", want: "default.sdb"},
		{name: "blank yields default", in: "   ", want: "default.sdb"},
		{name: "bare name", in: "model", want: "model.sdb"},
		{name: "already normalized", in: "model.sdb", want: "model.sdb"},
		{name: "other extension", in: "model.s2k", want: "model.s2k.sdb"},
		{name: "dotted name", in: "bridge.v2", want: "bridge.v2.sdb"},
		{name: "uppercase extension is not sdb", in: "MODEL.SDB", want: "MODEL.SDB.sdb"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeFilename(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, NormalizeFilename(got), "normalization must be idempotent")
		})
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func TestLoadFromFile(t *testing.T) {
	p := writeConfig(t, `
client: net
program_path: C:\SAP2000\SAP2000.exe
remote_computer: calc-01
path: C:\models
filename: tower
units: kip_ft_F
groups: [Columns, Beams]
log_level: debug
bridge:
  address: calc-01:50851
  insecure: true
journal:
  enabled: true
project_info:
  Company Name: ACME
  Client Name: ~
  Project Number: 4711
  Design Code: EC3
`)

	c, err := Load(viper.New(), p)
	require.NoError(t, err)

	assert.Equal(t, "net", c.Client)
	assert.Equal(t, "tower.sdb", c.Filename)
	assert.Equal(t, []string{"Columns", "Beams"}, c.Groups)
	assert.Equal(t, "calc-01:50851", c.Bridge.Address)
	assert.True(t, c.Bridge.Insecure)
	assert.True(t, c.Journal.Enabled)

	require.Len(t, c.ProjectInfo, 4)
	keys := make([]string, len(c.ProjectInfo))
	for i, e := range c.ProjectInfo {
		keys[i] = e.Key
	}
	assert.Equal(t, []string{"Company Name", "Client Name", "Project Number", "Design Code"}, keys)
	assert.Nil(t, c.ProjectInfo[1].Value)
	require.NotNil(t, c.ProjectInfo[2].Value)
	assert.Equal(t, "4711", *c.ProjectInfo[2].Value)

	conn, err := c.Connection()
	require.NoError(t, err)
	assert.Equal(t, transport.ModeNET, conn.Mode)
	assert.Equal(t, "calc-01", conn.RemoteHost)
	assert.Equal(t, `C:\SAP2000\SAP2000.exe`, conn.ProgramPath)

	setup, err := c.Setup()
	require.NoError(t, err)
	assert.Equal(t, project.KipFtF, setup.Units)
}

func TestLoadMissingDefaultFileYieldsDefaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	c, err := Load(viper.New(), "")
	require.NoError(t, err)
	assert.Equal(t, "com", c.Client)
	assert.Equal(t, DefaultFilename, c.Filename)
	assert.Equal(t, "kN_m_C", c.Units)
	assert.Equal(t, "localhost:50851", c.Bridge.Address)
	assert.Empty(t, c.ProjectInfo)
}

func TestLoadMissingExplicitFileFails(t *testing.T) {
	_, err := Load(viper.New(), filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestEnvironmentOverridesFile(t *testing.T) {
	p := writeConfig(t, "client: com\nattach: false\n")
	t.Setenv("S2KLAUNCH_CLIENT", "net")
	t.Setenv("S2KLAUNCH_ATTACH", "true")
	t.Setenv("S2KLAUNCH_BRIDGE_ADDRESS", "10.0.0.5:50851")

	c, err := Load(viper.New(), p)
	require.NoError(t, err)
	assert.Equal(t, "net", c.Client)
	assert.True(t, c.Attach)
	assert.Equal(t, "10.0.0.5:50851", c.Bridge.Address)
}

func TestLoadRejectsUnknownClient(t *testing.T) {
	p := writeConfig(t, "client: corba\n")
	_, err := Load(viper.New(), p)
	require.Error(t, err)
}

func TestLoadRejectsNonScalarProjectInfo(t *testing.T) {
	p := writeConfig(t, "project_info:\n  Company Name: [a, b]\n")
	_, err := Load(viper.New(), p)
	require.Error(t, err)
}

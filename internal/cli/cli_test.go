package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leftp/doctrack/internal/config"
	"github.com/leftp/doctrack/internal/track"
)

func testCommand(t *testing.T, cfgFile string) *cobra.Command {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
	t.Setenv("HOME", t.TempDir())

	cmd := &cobra.Command{Use: "doctrack"}
	cmd.Flags().String("config", "", "")
	cmd.Flags().Bool("json", false, "")
	if cfgFile != "" {
		require.NoError(t, cmd.Flags().Set("config", cfgFile))
	}
	return cmd
}

func TestSetupDefaults(t *testing.T) {
	env, err := Setup(testCommand(t, ""))
	require.NoError(t, err)
	assert.Equal(t, config.DefaultSuffix, env.Config.Output.Suffix)
	assert.False(t, env.Audit.Enabled)
}

func TestSetupMissingConfigFile(t *testing.T) {
	_, err := Setup(testCommand(t, filepath.Join(t.TempDir(), "missing.yaml")))
	assert.ErrorIs(t, err, track.ErrConfiguration)
}

func TestDocTypeFallsBackToConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("type: xlsm\n"), 0644))

	env, err := Setup(testCommand(t, path))
	require.NoError(t, err)

	dt, err := env.DocType("")
	require.NoError(t, err)
	assert.Equal(t, "xlsm", dt.Name)

	dt, err = env.DocType("dotx")
	require.NoError(t, err)
	assert.Equal(t, "dotx", dt.Name)
}

func TestDocTypeMissing(t *testing.T) {
	env, err := Setup(testCommand(t, ""))
	require.NoError(t, err)
	_, err = env.DocType("")
	assert.ErrorIs(t, err, track.ErrConfiguration)
}

func TestAuditLoggerPolicyOverrides(t *testing.T) {
	cfg := &config.Config{}
	cfg.Audit.File = "/tmp/user-audit.log"

	policy := &config.Policy{}
	policy.Audit.Enabled = true
	policy.Audit.FilePath = "/var/log/doctrack.log"

	l := AuditLogger(cfg, policy)
	assert.True(t, l.Enabled)
	assert.Equal(t, "/var/log/doctrack.log", l.FilePath)

	l = AuditLogger(cfg, nil)
	assert.False(t, l.Enabled)
	assert.Equal(t, "/tmp/user-audit.log", l.FilePath)
}

func TestLoadMetadata(t *testing.T) {
	kv, err := LoadMetadata("")
	require.NoError(t, err)
	assert.Nil(t, kv)

	_, err = LoadMetadata(filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorIs(t, err, track.ErrConfiguration)
}

func TestErrorKind(t *testing.T) {
	cases := map[error]string{
		fmt.Errorf("%w: x", track.ErrConfiguration):    "configuration",
		fmt.Errorf("%w: x", track.ErrUnsupportedKind):  "unsupported_kind",
		fmt.Errorf("%w: x", track.ErrMalformedPackage): "malformed_package",
		fmt.Errorf("%w: x", track.ErrInvalidTarget):    "invalid_target",
		errors.New("disk full"):                        "",
	}
	for err, want := range cases {
		assert.Equal(t, want, ErrorKind(err), err.Error())
	}
}

func TestArgs(t *testing.T) {
	cmd := testCommand(t, "")
	cmd.Flags().String("url", "", "")
	require.NoError(t, cmd.Flags().Set("url", "https://t.example.com/p.png?id=1"))

	got := Args(cmd, []string{"in.docx"})
	assert.Equal(t, []string{"--url=https://t.example.com/p.png?id=1", "in.docx"}, got)
}

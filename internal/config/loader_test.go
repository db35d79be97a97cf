package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dougwhitewolff/vasop-client/internal/wizard"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func isolateWorkingDir(t *testing.T) {
	t.Helper()

	previous, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() {
		_ = os.Chdir(previous)
	})
}

func TestValidateSecretKey(t *testing.T) {
	cases := []struct {
		raw  string
		want error
	}{
		{raw: "", want: ErrMissingSecretKey},
		{raw: "change_me_in_production", want: ErrPlaceholderSecretKey},
		{raw: "replace_with_at_least_32_random_characters", want: ErrPlaceholderSecretKey},
		{raw: "too-short-secret", want: ErrShortSecretKey},
	}
	for _, tc := range cases {
		_, err := ValidateSecretKey(tc.raw)
		assert.ErrorIs(t, err, tc.want, "secret %q", tc.raw)
	}

	secret, err := ValidateSecretKey("  " + testSecret + " ")
	require.NoError(t, err)
	assert.Equal(t, testSecret, secret)
}

func TestLoadAppliesDefaults(t *testing.T) {
	isolateWorkingDir(t)
	t.Setenv("VASOP_SERVER_SECRET_KEY", testSecret)

	cfg, err := Load(nil)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "http://localhost:3001", cfg.Remote.BaseURL)
	assert.Equal(t, CacheDriverSQLite, cfg.Cache.Driver)
	assert.Equal(t, 2*time.Second, cfg.Wizard.SubmitRedirectDelay)

	policy, err := cfg.WizardPolicy()
	require.NoError(t, err)
	assert.Equal(t, wizard.DefaultPolicy(), policy)
}

func TestLoadRejectsMissingSecret(t *testing.T) {
	isolateWorkingDir(t)
	t.Setenv("VASOP_SERVER_SECRET_KEY", "")

	_, err := Load(nil)
	assert.True(t, errors.Is(err, ErrMissingSecretKey))
}

func TestLoadReadsEnvironmentAndFlags(t *testing.T) {
	isolateWorkingDir(t)
	t.Setenv("VASOP_SERVER_SECRET_KEY", testSecret)
	t.Setenv("VASOP_WIZARD_TRIGGER_METHOD_POLICY", "fixed_pound_key")
	t.Setenv("VASOP_CACHE_DRIVER", "redis")
	t.Setenv("VASOP_REMOTE_TIMEOUT", "3s")

	flags := pflag.NewFlagSet("vasop", pflag.ContinueOnError)
	RegisterFlags(flags)
	require.NoError(t, flags.Parse([]string{"--port", "9090", "--embedded-backend"}))

	cfg, err := Load(flags)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.True(t, cfg.Backend.Embedded)
	assert.Equal(t, CacheDriverRedis, cfg.Cache.Driver)
	assert.Equal(t, 3*time.Second, cfg.Remote.Timeout)
	policy, err := cfg.WizardPolicy()
	require.NoError(t, err)
	assert.Equal(t, wizard.TriggerFixedPoundKey, policy.TriggerMethod)
}

func TestLoadReadsConfigFile(t *testing.T) {
	isolateWorkingDir(t)
	t.Setenv("VASOP_SERVER_SECRET_KEY", testSecret)

	path := filepath.Join(t.TempDir(), "vasop.yaml")
	require.NoError(t, os.WriteFile(path, []byte("wizard:\n  save_validation: strict\nlog:\n  format: json\n"), 0o600))

	flags := pflag.NewFlagSet("vasop", pflag.ContinueOnError)
	RegisterFlags(flags)
	require.NoError(t, flags.Parse([]string{"--config", path}))

	cfg, err := Load(flags)
	require.NoError(t, err)
	assert.Equal(t, "strict", cfg.Wizard.SaveValidation)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestValidateRejectsUnknownNames(t *testing.T) {
	isolateWorkingDir(t)
	t.Setenv("VASOP_SERVER_SECRET_KEY", testSecret)

	t.Setenv("VASOP_CACHE_DRIVER", "memcached")
	_, err := Load(nil)
	assert.ErrorContains(t, err, "unknown cache driver")

	t.Setenv("VASOP_CACHE_DRIVER", "sqlite")
	t.Setenv("VASOP_WIZARD_SAVE_VALIDATION", "sometimes")
	_, err = Load(nil)
	assert.ErrorContains(t, err, "unknown save validation policy")
}

func TestValidateRejectsSharedBackendPort(t *testing.T) {
	isolateWorkingDir(t)
	t.Setenv("VASOP_SERVER_SECRET_KEY", testSecret)
	t.Setenv("VASOP_BACKEND_EMBEDDED", "true")
	t.Setenv("VASOP_BACKEND_PORT", "8080")

	_, err := Load(nil)
	assert.ErrorContains(t, err, "backend.port")
}

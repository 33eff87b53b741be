package options

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateFillsEmptyFields(t *testing.T) {
	t.Parallel()

	o := Options{}
	require.NoError(t, o.Validate())
	assert.Equal(t, DetectAccurate, o.DetectMode)
	assert.Equal(t, EnvJinja2, o.Environment)
	assert.Equal(t, PythonUnknown, o.PythonVersion)
	assert.Equal(t, EvadeAvoid, o.EvasionStrategy)
	assert.Equal(t, ProbeOff, o.KeywordProbing)
}

func TestValidateRejectsUnknownValues(t *testing.T) {
	t.Parallel()

	cases := []Options{
		{DetectMode: "thorough"},
		{Environment: "django"},
		{PythonVersion: "python4"},
		{EvasionStrategy: "mutate"},
		{KeywordProbing: "sometimes"},
		{Interval: -time.Second},
	}
	for _, o := range cases {
		assert.Error(t, o.Validate(), "%+v", o)
	}
}

func TestLoadProfile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "profile.yaml")
	profile := `
detect_mode: fast
environment: flask
python_version: python3
python_subversion: 9
evasion_strategy: doubletap
keywords: ["__", "popen"]
interval: 250ms
user_agent: probe/1.0
`
	require.NoError(t, os.WriteFile(path, []byte(profile), 0o644))

	o, err := LoadProfile(path)
	require.NoError(t, err)
	assert.Equal(t, DetectFast, o.DetectMode)
	assert.Equal(t, EnvFlask, o.Environment)
	assert.Equal(t, Python3, o.PythonVersion)
	assert.Equal(t, 9, o.PythonSubversion)
	assert.Equal(t, EvadeDoubleTap, o.EvasionStrategy)
	assert.Equal(t, []string{"__", "popen"}, o.Keywords)
	assert.Equal(t, 250*time.Millisecond, o.Interval)
	assert.Equal(t, "probe/1.0", o.UserAgent)
}

func TestLoadProfilePartialKeepsDefaults(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "profile.yaml")
	require.NoError(t, os.WriteFile(path, []byte("keywords: [os]\n"), 0o644))

	o, err := LoadProfile(path)
	require.NoError(t, err)
	assert.Equal(t, DetectAccurate, o.DetectMode)
	assert.Equal(t, []string{"os"}, o.Keywords)
}

func TestLoadProfileErrors(t *testing.T) {
	t.Parallel()

	_, err := LoadProfile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("detect_mode: [nope\n"), 0o644))
	_, err = LoadProfile(bad)
	assert.Error(t, err)
}

package configutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type testConfig struct {
	Name    string   `json:"name"`
	Workers int      `json:"workers"`
	Types   []string `json:"types"`
}

func write(t *testing.T, path, content string) {
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestLocalPath(t *testing.T) {
	require.Equal(t, "dir/lbtrend.local.json5", localPath("dir/lbtrend.json5"))
	require.Equal(t, "noext.local", localPath("noext"))
}

func TestReadConfigMergesLocal(t *testing.T) {
	dir := t.TempDir()
	write(t, filepath.Join(dir, "app.json5"), `{
		// comments are fine
		"name": "base",
		"workers": 5
	}`)
	write(t, filepath.Join(dir, "app.local.json5"), `{"workers": 2, "types": ["P"]}`)

	config, err := ReadConfig[testConfig](filepath.Join(dir, "app.json5"))
	require.NoError(t, err)
	require.Equal(t, testConfig{Name: "base", Workers: 2, Types: []string{"P"}}, config)
}

func TestReadConfigMissing(t *testing.T) {
	_, err := ReadConfig[testConfig](filepath.Join(t.TempDir(), "app.json5"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestReadConfigInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.json5")
	write(t, path, `{"name": `)
	_, err := ReadConfig[testConfig](path)
	require.Error(t, err)
	require.NotErrorIs(t, err, os.ErrNotExist)
}

func TestReadWithDefaults(t *testing.T) {
	defaults := testConfig{Name: "default", Workers: 5, Types: []string{"P", "B"}}

	config, err := ReadWithDefaults(filepath.Join(t.TempDir(), "app.json5"), defaults)
	require.NoError(t, err)
	require.Equal(t, defaults, config)

	dir := t.TempDir()
	write(t, filepath.Join(dir, "app.json5"), `{"workers": 8}`)
	config, err = ReadWithDefaults(filepath.Join(dir, "app.json5"), defaults)
	require.NoError(t, err)
	require.Equal(t, testConfig{Name: "default", Workers: 8, Types: []string{"P", "B"}}, config)
}

func TestReadWithDefaultsKeepsExplicitZeros(t *testing.T) {
	defaults := testConfig{Name: "default", Workers: 5, Types: []string{"P", "B"}}

	dir := t.TempDir()
	write(t, filepath.Join(dir, "app.json5"), `{"name": "", "workers": 0, "types": ["C"]}`)
	write(t, filepath.Join(dir, "app.local.json5"), `{"name": "local"}`)

	config, err := ReadWithDefaults(filepath.Join(dir, "app.json5"), defaults)
	require.NoError(t, err)
	require.Equal(t, testConfig{Name: "local", Workers: 0, Types: []string{"C"}}, config)
	require.Equal(t, []string{"P", "B"}, defaults.Types)
}

func TestReadWithDefaultsInvalidLocal(t *testing.T) {
	dir := t.TempDir()
	write(t, filepath.Join(dir, "app.local.json5"), `{"workers": `)
	_, err := ReadWithDefaults(filepath.Join(dir, "app.json5"), testConfig{Workers: 5})
	require.Error(t, err)
}

func TestReadRecursively(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0755))
	write(t, filepath.Join(root, "tel.json5"), `{"name": "found"}`)

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(nested))
	defer os.Chdir(wd)

	config, err := ReadRecursively[testConfig]("tel.json5")
	require.NoError(t, err)
	require.Equal(t, "found", config.Name)
}

package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"lbtrend/internal/trend"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	config, err := loadConfig(filepath.Join(t.TempDir(), "lbtrend.json5"), "", "")
	require.NoError(t, err)

	require.Equal(t, modeSummary, config.Mode)
	require.Equal(t, "trend_election_data_2025.csv", config.Output)
	require.Equal(t, 5, config.Workers)
	require.Equal(t, 3, config.MaxRetries)
	require.Equal(t, 15*time.Second, config.clientOptions().Timeout)
	require.Equal(t, 100, config.ProgressEvery)
	require.Zero(t, config.wardDelay())
	require.Equal(t, trend.DefaultRegions, config.Regions)
	require.Equal(t, []string{"P", "B", "D", "C"}, config.RequestTypes)
}

func TestLoadConfigDetailedDefaults(t *testing.T) {
	config, err := loadConfig(filepath.Join(t.TempDir(), "lbtrend.json5"), modeDetailed, "")
	require.NoError(t, err)

	require.Equal(t, "trend_detailed_results_2025.csv", config.Output)
	require.Equal(t, 5, config.MaxRetries)
	require.Equal(t, 20*time.Second, config.clientOptions().Timeout)
	require.Equal(t, 10, config.ProgressEvery)
	require.Equal(t, 50*time.Millisecond, config.wardDelay())
}

func TestLoadConfigFileAndOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lbtrend.json5")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"mode": "detailed",
		"sink": "sqlite",
		"workers": 2,
		"ward_delay_ms": -1,
		"regions": [{"code": "D02001", "name": "Kollam"}]
	}`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "lbtrend.local.json5"), []byte(`{"workers": 3}`), 0644))

	config, err := loadConfig(path, "", "")
	require.NoError(t, err)
	require.Equal(t, modeDetailed, config.Mode)
	require.Equal(t, "trend_detailed_results_2025.db", config.Output)
	require.Equal(t, 3, config.Workers)
	require.Zero(t, config.wardDelay())
	require.Equal(t, []trend.Region{{Code: "D02001", Name: "Kollam"}}, config.Regions)

	// the subcommand and --out win over the file
	config, err = loadConfig(path, modeSummary, "custom.db")
	require.NoError(t, err)
	require.Equal(t, modeSummary, config.Mode)
	require.Equal(t, "custom.db", config.Output)
}

func TestLoadConfigKeepsExplicitZeros(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lbtrend.json5")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"mode": "detailed",
		"max_retries": 0,
		"progress_every": 0,
		"ward_delay_ms": 0,
		"backoff_min_ms": 0
	}`), 0644))

	config, err := loadConfig(path, "", "")
	require.NoError(t, err)
	require.Equal(t, 0, config.clientOptions().MaxRetries)
	require.Zero(t, config.clientOptions().RetryWait)
	require.Equal(t, 0, config.poolOptions().ProgressEvery)
	require.Zero(t, config.wardDelay())
	// keys left out still come from the detailed defaults
	require.Equal(t, 20*time.Second, config.clientOptions().Timeout)
	require.Equal(t, 5, config.Workers)
	require.Equal(t, trend.DefaultRegions, config.Regions)
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"workers": `{"workers": 0}`,
		"retries": `{"max_retries": -1}`,
		"mode":    `{"mode": "full"}`,
		"sink":    `{"sink": "parquet"}`,
		"backoff": `{"backoff_min_ms": 500, "backoff_max_ms": 10}`,
		"region":  `{"regions": [{"code": "D01001"}]}`,
		"syntax":  `{"workers": `,
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "lbtrend.json5")
			require.NoError(t, os.WriteFile(path, []byte(content), 0644))
			_, err := loadConfig(path, "", "")
			require.Error(t, err)
		})
	}
}

func TestSummaryCommand(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		var payload any = [][]any{}
		switch {
		case r.URL.Path == "/stateView2_ajax.php" && r.PostForm.Get("_l") == "P":
			payload = [][]any{{"G02001", "Chavara"}}
		case r.PostForm.Get("_p") == "wv":
			payload = [][]any{{"G02001001", "", nil, "Rahim", 77, "Ward 1", "N", 0, "Suresh", 60}}
		}
		json.NewEncoder(w).Encode(map[string]any{"payload": payload})
	}))
	defer srv.Close()

	dir := t.TempDir()
	path := filepath.Join(dir, "lbtrend.json5")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"base_url": "`+srv.URL+`",
		"regions": [{"code": "D02001", "name": "Kollam"}]
	}`), 0644))
	out := filepath.Join(dir, "out.csv")

	rootCmd.SetArgs([]string{"summary", "--config", path, "--out", out})
	require.NoError(t, rootCmd.ExecuteContext(context.Background()))

	content, err := os.ReadFile(out)
	require.NoError(t, err)
	lines := bytes.Split(bytes.TrimSpace(content), []byte("\r\n"))
	require.Len(t, lines, 2)
	require.Equal(t, "Kollam,Grama Panchayat,G02001,Chavara,001,Ward 1,Rahim,Ind/Other,77,Leading,Suresh,60", string(lines[1]))
}

func TestExecuteContextReturnsError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lbtrend.json5")
	require.NoError(t, os.WriteFile(path, []byte(`{"sink": "parquet"}`), 0644))

	rootCmd.SetArgs([]string{"summary", "--config", path, "--out", filepath.Join(dir, "out.csv")})
	err := ExecuteContext(context.Background())
	require.ErrorContains(t, err, `unknown sink "parquet"`)
}

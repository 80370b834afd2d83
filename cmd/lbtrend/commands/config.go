package commands

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"lbtrend/internal/scheduler"
	"lbtrend/internal/trend"
	"lbtrend/lib/configutil"
)

const (
	modeSummary  = "summary"
	modeDetailed = "detailed"

	sinkCSV    = "csv"
	sinkSQLite = "sqlite"
)

type Config struct {
	BaseUrl     string `json:"base_url"`
	Mode        string `json:"mode"`
	Output      string `json:"output"`
	Sink        string `json:"sink"`
	SqliteTable string `json:"sqlite_table"`
	// DumpDir writes every http exchange to this directory when set.
	DumpDir string `json:"dump_dir"`

	Workers           int     `json:"workers"`
	MaxRetries        int     `json:"max_retries"`
	TimeoutSeconds    float64 `json:"timeout_seconds"`
	BackoffMinMs      int     `json:"backoff_min_ms"`
	BackoffMaxMs      int     `json:"backoff_max_ms"`
	RequestsPerSecond float64 `json:"requests_per_second"`
	// WardDelayMs is the pause between wards in detailed mode, zero or a
	// negative value disables it.
	WardDelayMs   int  `json:"ward_delay_ms"`
	ProgressEvery int  `json:"progress_every"`
	ProgressBar   bool `json:"progress_bar"`
	Debug         bool `json:"debug"`

	Regions      []trend.Region `json:"regions"`
	RequestTypes []string       `json:"request_types"`
}

func defaultsFor(mode, sink string) Config {
	config := Config{
		BaseUrl:      trend.DefaultBaseUrl,
		Mode:         modeSummary,
		Sink:         sinkCSV,
		SqliteTable:  "results",
		Workers:      5,
		BackoffMinMs: 1000,
		BackoffMaxMs: 30000,
		Regions:      slices.Clone(trend.DefaultRegions),
		RequestTypes: slices.Clone(trend.DefaultRequestTypes),
	}

	ext := ".csv"
	if sink == sinkSQLite {
		ext = ".db"
	}

	switch mode {
	case modeDetailed:
		config.Output = "trend_detailed_results_2025" + ext
		config.MaxRetries = 5
		config.TimeoutSeconds = 20
		config.ProgressEvery = 10
		config.WardDelayMs = 50
	default:
		config.Output = "trend_election_data_2025" + ext
		config.MaxRetries = 3
		config.TimeoutSeconds = 15
		config.ProgressEvery = 100
	}
	return config
}

// loadConfig reads `path` (and its .local override) on top of the defaults of
// the resolved mode, so keys present in the files win even when they are
// zero. `mode` wins over the file when it is set, `out` wins over the output
// in the file.
func loadConfig(path, mode, out string) (Config, error) {
	// the mode and sink pick the defaults, so they are resolved first
	selector, err := configutil.ReadWithDefaults(path, Config{Mode: modeSummary, Sink: sinkCSV})
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	if mode != "" {
		selector.Mode = mode
	}
	mode = strings.ToLower(selector.Mode)
	sink := strings.ToLower(selector.Sink)

	config, err := configutil.ReadWithDefaults(path, defaultsFor(mode, sink))
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	config.Mode = mode
	config.Sink = sink
	if out != "" {
		config.Output = out
	}
	return config, config.validate()
}

func (c Config) validate() error {
	switch c.Mode {
	case modeSummary, modeDetailed:
	default:
		return fmt.Errorf("unknown mode %q", c.Mode)
	}
	switch c.Sink {
	case sinkCSV, sinkSQLite:
	default:
		return fmt.Errorf("unknown sink %q", c.Sink)
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max_retries must not be negative, got %d", c.MaxRetries)
	}
	if c.BackoffMaxMs < c.BackoffMinMs {
		return fmt.Errorf("backoff_max_ms (%d) is below backoff_min_ms (%d)", c.BackoffMaxMs, c.BackoffMinMs)
	}
	for _, r := range c.Regions {
		if r.Code == "" || r.Name == "" {
			return fmt.Errorf("region %+v needs both a code and a name", r)
		}
	}
	return nil
}

func (c Config) clientOptions() trend.ClientOptions {
	return trend.ClientOptions{
		BaseUrl:           c.BaseUrl,
		MaxRetries:        c.MaxRetries,
		Timeout:           time.Duration(c.TimeoutSeconds * float64(time.Second)),
		RetryWait:         time.Duration(c.BackoffMinMs) * time.Millisecond,
		RetryMaxWait:      time.Duration(c.BackoffMaxMs) * time.Millisecond,
		RequestsPerSecond: c.RequestsPerSecond,
	}
}

func (c Config) poolOptions() scheduler.Options {
	return scheduler.Options{
		Workers:       c.Workers,
		ProgressEvery: c.ProgressEvery,
		ProgressBar:   c.ProgressBar,
	}
}

func (c Config) wardDelay() time.Duration {
	if c.WardDelayMs < 0 {
		return 0
	}
	return time.Duration(c.WardDelayMs) * time.Millisecond
}

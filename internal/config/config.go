// Package config loads the monitor configuration from YAML.
package config

import (
	"maps"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rxtech-lab/argo-setups/internal/detector"
	"github.com/rxtech-lab/argo-setups/internal/feed"
	"github.com/rxtech-lab/argo-setups/internal/types"
	"github.com/rxtech-lab/argo-setups/internal/version"
	"github.com/rxtech-lab/argo-setups/pkg/errors"
	"github.com/rxtech-lab/argo-setups/pkg/utils"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultPath is the configuration file read when no path is given.
	DefaultPath = "config.yaml"
	// ExampleFile is the fallback read when the configured file does not exist.
	ExampleFile = "config.example.yaml"
)

// TurboConfig describes the leveraged derivative signals are translated into.
type TurboConfig struct {
	Leverage  float64 `yaml:"leverage" json:"leverage" jsonschema:"description=Leverage used for distance levels,default=3.5" validate:"gt=0"`
	Ratio     float64 `yaml:"ratio" json:"ratio" jsonschema:"description=Underlying units per derivative,default=10" validate:"gt=0"`
	LongISIN  string  `yaml:"long_isin" json:"long_isin,omitempty" jsonschema:"description=ISIN of the long derivative"`
	ShortISIN string  `yaml:"short_isin" json:"short_isin,omitempty" jsonschema:"description=ISIN of the short derivative"`
	// MarketPrice is the derivative quote. Without it signals carry distance levels.
	MarketPrice *float64 `yaml:"market_price,omitempty" json:"market_price,omitempty" jsonschema:"description=Current derivative price" validate:"omitempty,gt=0"`
}

// FeedConfig selects and tunes the bar source.
type FeedConfig struct {
	Mode         types.FeedMode `yaml:"mode" json:"mode" jsonschema:"enum=mock,enum=live,enum=replay,default=mock" validate:"required"`
	Provider     feed.Provider  `yaml:"provider" json:"provider" jsonschema:"enum=polygon,enum=binance,default=polygon"`
	Location     string         `yaml:"location" json:"location" jsonschema:"description=Time zone bars are converted into,default=Europe/Amsterdam" validate:"required"`
	PollInterval time.Duration  `yaml:"poll_interval" json:"poll_interval" jsonschema:"type=string,description=Live polling interval such as 60s" validate:"gte=0"`
	FetchRate    float64        `yaml:"fetch_rate" json:"fetch_rate" jsonschema:"description=Maximum fetches per second,default=1" validate:"gte=0"`
	Pace         time.Duration  `yaml:"pace" json:"pace" jsonschema:"type=string,description=Delay between synthetic or replayed bars such as 100ms" validate:"gte=0"`
	Limit        int            `yaml:"limit" json:"limit" jsonschema:"description=Stop after this many bars (0 is unlimited)" validate:"gte=0"`
	Seed         int64          `yaml:"seed" json:"seed,omitempty" jsonschema:"description=Random walk seed (0 picks one)"`
	ReplayFile   string         `yaml:"replay_file" json:"replay_file,omitempty" jsonschema:"description=Parquet or CSV file replayed in replay mode" validate:"required_if=Mode replay"`
}

// HistoryConfig points at the bars used to warm up indicators.
type HistoryConfig struct {
	WarmupFile string `yaml:"warmup_file" json:"warmup_file,omitempty" jsonschema:"description=Parquet or CSV file with previous session bars"`
	WarmupBars int    `yaml:"warmup_bars" json:"warmup_bars" jsonschema:"description=Newest bars loaded from the warm-up file,default=500" validate:"gte=0"`
}

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	Addr         string        `yaml:"addr" json:"addr" jsonschema:"default=:8080" validate:"required"`
	PushInterval time.Duration `yaml:"push_interval" json:"push_interval" jsonschema:"type=string,description=WebSocket snapshot interval such as 2s" validate:"gte=0"`
}

// ScheduleConfig starts and stops the engine on cron expressions.
type ScheduleConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Start   string `yaml:"start" json:"start" jsonschema:"description=Cron expression starting a run,default=0 8 * * 1-5" validate:"required_if=Enabled true"`
	Stop    string `yaml:"stop" json:"stop" jsonschema:"description=Cron expression stopping the run,default=35 17 * * 1-5" validate:"required_if=Enabled true"`
}

// LogConfig configures the logger.
type LogConfig struct {
	Level string `yaml:"level" json:"level" jsonschema:"enum=debug,enum=info,enum=warn,enum=error,default=info" validate:"omitempty,oneof=debug info warn warning error"`
}

// AppConfig is the whole configuration file.
type AppConfig struct {
	Version          string          `yaml:"version" json:"version,omitempty" jsonschema:"description=Version the file was written for"`
	UnderlyingSymbol string          `yaml:"underlying_symbol" json:"underlying_symbol" jsonschema:"default=ASML.AS" validate:"required"`
	DemoSetup        types.SetupName `yaml:"demo_setup" json:"demo_setup" jsonschema:"enum=morning_gap,enum=morning_momentum,enum=opening_range_break,enum=closing_reversion,enum=breakout,default=morning_gap" validate:"required"`
	DemoPrevClose    float64         `yaml:"demo_prev_close" json:"demo_prev_close" jsonschema:"description=Previous session close,default=1210" validate:"gt=0"`
	// DemoForceWindow widens all setup windows to the whole day.
	DemoForceWindow bool                               `yaml:"demo_force_window" json:"demo_force_window" jsonschema:"default=true"`
	Turbo           TurboConfig                        `yaml:"turbo" json:"turbo"`
	Feed            FeedConfig                         `yaml:"feed" json:"feed"`
	History         HistoryConfig                      `yaml:"history" json:"history"`
	Server          ServerConfig                       `yaml:"server" json:"server"`
	Schedule        ScheduleConfig                     `yaml:"schedule" json:"schedule"`
	Log             LogConfig                          `yaml:"log" json:"log"`
	Setups          map[types.SetupName]map[string]any `yaml:"setups" json:"setups,omitempty" jsonschema:"description=Per setup parameter overrides"`
}

// Default returns the configuration used for every key the file leaves out.
func Default() AppConfig {
	return AppConfig{
		Version:          version.Version,
		UnderlyingSymbol: "ASML.AS",
		DemoSetup:        types.SetupMorningGap,
		DemoPrevClose:    1210,
		DemoForceWindow:  true,
		Turbo: TurboConfig{
			Leverage:    3.5,
			Ratio:       10,
			LongISIN:    "",
			ShortISIN:   "",
			MarketPrice: nil,
		},
		Feed: FeedConfig{
			Mode:         types.FeedModeMock,
			Provider:     feed.ProviderPolygon,
			Location:     feed.DefaultLocation,
			PollInterval: feed.DefaultPollInterval,
			FetchRate:    feed.DefaultFetchRate,
			Pace:         feed.DefaultPace,
			Limit:        0,
			Seed:         0,
			ReplayFile:   "",
		},
		History: HistoryConfig{
			WarmupFile: "",
			WarmupBars: 500,
		},
		Server: ServerConfig{
			Addr:         ":8080",
			PushInterval: 2 * time.Second,
		},
		Schedule: ScheduleConfig{
			Enabled: false,
			Start:   "0 8 * * 1-5",
			Stop:    "35 17 * * 1-5",
		},
		Log: LogConfig{
			Level: "info",
		},
		Setups: map[types.SetupName]map[string]any{},
	}
}

// Load reads path, falling back to config.example.yaml next to it when path does not exist.
func Load(path string) (*AppConfig, error) {
	if path == "" {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		fallback := filepath.Join(filepath.Dir(path), ExampleFile)
		data, err = os.ReadFile(fallback)
	}

	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "failed to read config %s", path)
	}

	return Parse(data)
}

// Parse decodes YAML over the defaults and validates the result.
func Parse(data []byte) (*AppConfig, error) {
	cfg := Default()

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to parse config", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks field constraints, the version gate, the time zone and every setup's parameters.
func (c *AppConfig) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid config", err)
	}

	if err := version.CheckConfigCompatibility(version.Version, c.Version); err != nil {
		return errors.Wrap(errors.GetCode(err), "config version rejected", err)
	}

	if !c.DemoSetup.Valid() {
		return errors.Newf(errors.ErrCodeUnsupportedSetup, "unknown demo_setup %q", c.DemoSetup)
	}

	if !c.Feed.Mode.Valid() {
		return errors.Newf(errors.ErrCodeInvalidConfiguration, "unknown feed mode %q", c.Feed.Mode)
	}

	if _, err := c.LoadLocation(); err != nil {
		return err
	}

	for name, params := range c.Setups {
		if _, err := detector.New(name, params); err != nil {
			return err
		}
	}

	return nil
}

// LoadLocation resolves the feed time zone.
func (c *AppConfig) LoadLocation() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Feed.Location)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "unknown location %q", c.Feed.Location)
	}

	return loc, nil
}

// SetupParams returns a copy of the overrides for name, never nil.
func (c *AppConfig) SetupParams(name types.SetupName) map[string]any {
	out := make(map[string]any)
	maps.Copy(out, c.Setups[name])

	return out
}

// MarketPrice returns the configured derivative quote, if any.
func (c *AppConfig) MarketPrice() (float64, bool) {
	if c.Turbo.MarketPrice == nil {
		return 0, false
	}

	return *c.Turbo.MarketPrice, true
}

// Clone returns a deep copy.
func (c *AppConfig) Clone() *AppConfig {
	out := *c

	if c.Turbo.MarketPrice != nil {
		price := *c.Turbo.MarketPrice
		out.Turbo.MarketPrice = &price
	}

	out.Setups = make(map[types.SetupName]map[string]any, len(c.Setups))
	for name, params := range c.Setups {
		out.Setups[name] = maps.Clone(params)
	}

	return &out
}

// Marshal renders the configuration as YAML.
func (c *AppConfig) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to marshal config", err)
	}

	return data, nil
}

// Schema returns the JSON schema of the configuration file.
func Schema() (string, error) {
	schema, err := utils.GetSchema(&AppConfig{}, utils.SchemaOptions{Indent: true})
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to build schema", err)
	}

	return schema, nil
}

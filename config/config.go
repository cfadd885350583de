package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/rustyeddy/bandtrader/backtest"
	"github.com/rustyeddy/bandtrader/indicators"
	"github.com/rustyeddy/bandtrader/market"
	"github.com/rustyeddy/bandtrader/market/data"
	"github.com/rustyeddy/bandtrader/sim"
	"github.com/rustyeddy/bandtrader/strategies"
)

// Config represents the complete backtest configuration
type Config struct {
	Account    AccountConfig    `json:"account" yaml:"account" jsonschema:"title=Account"`
	Execution  ExecutionConfig  `json:"execution" yaml:"execution" jsonschema:"title=Execution"`
	Strategy   StrategyConfig   `json:"strategy" yaml:"strategy" jsonschema:"title=Strategy"`
	Indicators IndicatorsConfig `json:"indicators" yaml:"indicators" jsonschema:"title=Indicators"`
	Data       DataConfig       `json:"data" yaml:"data" jsonschema:"title=Data"`
	Journal    JournalConfig    `json:"journal" yaml:"journal" jsonschema:"title=Journal"`
}

// AccountConfig contains account initialization parameters
type AccountConfig struct {
	Instrument  string  `json:"instrument" yaml:"instrument" validate:"required" jsonschema:"description=Traded instrument such as XAU_USD"`
	Balance     float64 `json:"balance" yaml:"balance" jsonschema:"description=Starting balance in account currency"`
	Leverage    float64 `json:"leverage" yaml:"leverage" validate:"gt=0" jsonschema:"description=Notional multiple of committed margin"`
	MarginRatio float64 `json:"margin_ratio" yaml:"margin_ratio" validate:"gt=0,lte=1" jsonschema:"description=Fraction of balance committed per trade,maximum=1"`
}

// ExecutionConfig controls fills and the stop-loss
type ExecutionConfig struct {
	Spread     float64 `json:"spread" yaml:"spread" validate:"gte=0" jsonschema:"description=Ask minus bid in quote currency,minimum=0"`
	Stop       string  `json:"stop" yaml:"stop" validate:"oneof=fixed band" jsonschema:"enum=fixed,enum=band"`
	StopOffset float64 `json:"stop_offset" yaml:"stop_offset" validate:"gt=0,lt=1" jsonschema:"description=Fraction beyond entry (fixed) or beyond the band (band)"`
	Trigger    string  `json:"trigger" yaml:"trigger" validate:"omitempty,oneof=close on-close intrabar high-low" jsonschema:"enum=close,enum=intrabar"`
	MaxRiskPct float64 `json:"max_risk_pct,omitempty" yaml:"max_risk_pct,omitempty" validate:"gte=0,lte=1"`
	MinRR      float64 `json:"min_rr,omitempty" yaml:"min_rr,omitempty" validate:"gte=0"`
	Seed       int64   `json:"seed,omitempty" yaml:"seed,omitempty" jsonschema:"description=Seed for trade ID entropy"`
}

// StrategyConfig contains strategy parameters
type StrategyConfig struct {
	Name         string  `json:"name" yaml:"name" validate:"required"`
	Oversold     float64 `json:"oversold" yaml:"oversold" validate:"gte=0,lte=100"`
	Overbought   float64 `json:"overbought" yaml:"overbought" validate:"gte=0,lte=100"`
	Target       string  `json:"target" yaml:"target" validate:"omitempty,oneof=mid midline lagged-mid band" jsonschema:"enum=mid,enum=lagged-mid,enum=band"`
	TargetOffset float64 `json:"target_offset,omitempty" yaml:"target_offset,omitempty"`
	TrendFilter  bool    `json:"trend_filter,omitempty" yaml:"trend_filter,omitempty"`
}

// IndicatorsConfig mirrors indicators.PipelineConfig
type IndicatorsConfig struct {
	RSIPeriod int     `json:"rsi_period" yaml:"rsi_period" validate:"gt=0"`
	BBPeriod  int     `json:"bb_period" yaml:"bb_period" validate:"gte=2"`
	BBStdDev  float64 `json:"bb_stddev" yaml:"bb_stddev" validate:"gt=0"`
	MidLag    int     `json:"mid_lag,omitempty" yaml:"mid_lag,omitempty" validate:"gte=0"`
	FastMA    int     `json:"fast_ma,omitempty" yaml:"fast_ma,omitempty" validate:"gte=0"`
	SlowMA    int     `json:"slow_ma,omitempty" yaml:"slow_ma,omitempty" validate:"gte=0"`
	MAKind    string  `json:"ma_kind,omitempty" yaml:"ma_kind,omitempty" validate:"omitempty,oneof=sma ema" jsonschema:"enum=sma,enum=ema"`
}

// DataConfig locates the candle file
type DataConfig struct {
	Path      string `json:"path" yaml:"path"`
	Timeframe string `json:"timeframe,omitempty" yaml:"timeframe,omitempty" jsonschema:"description=Bar timeframe label such as M5; inferred from the candles when empty"`
	From      string `json:"from,omitempty" yaml:"from,omitempty" validate:"omitempty,datetime=2006-01-02" jsonschema:"format=date"`
	To        string `json:"to,omitempty" yaml:"to,omitempty" validate:"omitempty,datetime=2006-01-02" jsonschema:"format=date"`
}

// JournalConfig contains journaling parameters
type JournalConfig struct {
	Type       string `json:"type" yaml:"type" validate:"oneof=none csv sqlite" jsonschema:"enum=none,enum=csv,enum=sqlite"`
	TradesFile string `json:"trades_file,omitempty" yaml:"trades_file,omitempty" validate:"required_if=Type csv"`
	EquityFile string `json:"equity_file,omitempty" yaml:"equity_file,omitempty" validate:"required_if=Type csv"`
	DBPath     string `json:"db_path,omitempty" yaml:"db_path,omitempty" validate:"required_if=Type sqlite"`
	OrgDir     string `json:"org_dir,omitempty" yaml:"org_dir,omitempty" jsonschema:"description=Directory for Org run reports"`
}

// LoadFromFile loads configuration from a file (YAML first, JSON fallback)
func LoadFromFile(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	// unset keys keep their defaults
	cfg := Default()

	err = yaml.Unmarshal(raw, cfg)
	if err != nil {
		err = json.Unmarshal(raw, cfg)
		if err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// SaveToFile saves configuration as YAML for .yaml/.yml paths, JSON otherwise
func (c *Config) SaveToFile(path string) error {
	var out []byte
	var err error

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		out, err = yaml.Marshal(c)
	default:
		out, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, out, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

var validate = newValidator()

// newValidator reports fields by their yaml keys.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate runs the struct tags, then the checks tags cannot express.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return describe(err)
	}

	if _, ok := market.LookupInstrument(c.Account.Instrument); !ok {
		return fmt.Errorf("unknown instrument: %s", c.Account.Instrument)
	}
	if c.Strategy.Oversold >= c.Strategy.Overbought {
		return fmt.Errorf("strategy.oversold must be below strategy.overbought")
	}
	if c.Strategy.TrendFilter && (c.Indicators.FastMA == 0 || c.Indicators.SlowMA == 0) {
		return fmt.Errorf("strategy.trend_filter needs indicators.fast_ma and indicators.slow_ma")
	}
	if c.Strategy.Target == "lagged-mid" && c.Indicators.MidLag == 0 {
		return fmt.Errorf("strategy.target lagged-mid needs indicators.mid_lag")
	}
	if _, err := strategies.ByName(c.StrategyConfig()); err != nil {
		return fmt.Errorf("strategy: %w", err)
	}
	if err := c.PipelineConfig().Validate(); err != nil {
		return fmt.Errorf("indicators: %w", err)
	}
	if _, _, err := c.Data.Range(); err != nil {
		return err
	}
	return nil
}

// describe turns validator errors into section.key messages.
func describe(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		// Config.account.balance -> account.balance
		field := fe.Namespace()
		if _, rest, ok := strings.Cut(field, "."); ok {
			field = rest
		}
		rule := fe.Tag()
		if fe.Param() != "" {
			rule += "=" + fe.Param()
		}
		msgs = append(msgs, fmt.Sprintf("%s failed %s (got %v)", field, rule, fe.Value()))
	}
	return errors.New(strings.Join(msgs, "; "))
}

// Range parses From and To as dates in UTC.
func (d DataConfig) Range() (from, to time.Time, err error) {
	if d.From != "" {
		if from, err = time.Parse("2006-01-02", d.From); err != nil {
			return from, to, fmt.Errorf("data.from: %w", err)
		}
	}
	if d.To != "" {
		if to, err = time.Parse("2006-01-02", d.To); err != nil {
			return from, to, fmt.Errorf("data.to: %w", err)
		}
	}
	if !from.IsZero() && !to.IsZero() && !from.Before(to) {
		return from, to, fmt.Errorf("data.from must be before data.to")
	}
	return from, to, nil
}

// LoadOptions maps the data section to loader options.
func (d DataConfig) LoadOptions() (data.Options, error) {
	from, to, err := d.Range()
	if err != nil {
		return data.Options{}, err
	}
	return data.Options{From: from, To: to}, nil
}

func (c *Config) StrategyConfig() strategies.Config {
	return strategies.Config{
		Name:         c.Strategy.Name,
		Oversold:     c.Strategy.Oversold,
		Overbought:   c.Strategy.Overbought,
		Target:       c.Strategy.Target,
		TargetOffset: c.Strategy.TargetOffset,
		TrendFilter:  c.Strategy.TrendFilter,
	}
}

func (c *Config) PipelineConfig() indicators.PipelineConfig {
	return indicators.PipelineConfig{
		RSIPeriod: c.Indicators.RSIPeriod,
		BBPeriod:  c.Indicators.BBPeriod,
		BBStdDev:  c.Indicators.BBStdDev,
		MidLag:    c.Indicators.MidLag,
		FastMA:    c.Indicators.FastMA,
		SlowMA:    c.Indicators.SlowMA,
		MAKind:    c.Indicators.MAKind,
	}
}

// EngineConfig builds the engine configuration. Journal, RunID, Logger and
// Progress are left for the caller.
func (c *Config) EngineConfig() (backtest.Config, error) {
	strat, err := strategies.ByName(c.StrategyConfig())
	if err != nil {
		return backtest.Config{}, fmt.Errorf("strategy: %w", err)
	}
	trigger, err := backtest.ParseTrigger(c.Execution.Trigger)
	if err != nil {
		return backtest.Config{}, err
	}

	var stop backtest.StopPolicy
	switch c.Execution.Stop {
	case "band":
		stop = backtest.BandStop{Offset: c.Execution.StopOffset}
	case "fixed", "":
		stop = backtest.FixedPercentStop{Percent: c.Execution.StopOffset}
	default:
		return backtest.Config{}, fmt.Errorf("unknown stop policy %q", c.Execution.Stop)
	}

	instrument := c.Account.Instrument
	if m, ok := market.LookupInstrument(instrument); ok {
		instrument = m.Name
	}

	return backtest.Config{
		Instrument:      instrument,
		StartingBalance: c.Account.Balance,
		Leverage:        c.Account.Leverage,
		MarginRatio:     c.Account.MarginRatio,
		Spread:          sim.Spread{Width: c.Execution.Spread},
		Stop:            stop,
		Trigger:         trigger,
		Strategy:        strat,
		MaxRiskPct:      c.Execution.MaxRiskPct,
		MinRR:           c.Execution.MinRR,
		Seed:            c.Execution.Seed,
		Logger:          zerolog.Nop(),
	}, nil
}

// Schema returns the JSON schema of the config file.
func Schema() *jsonschema.Schema {
	r := &jsonschema.Reflector{DoNotReference: true}
	s := r.Reflect(&Config{})
	s.Title = "bandtrader-config"
	s.Description = "Configuration for a bandtrader backtest run"
	return s
}

// Default returns the reference setup: gold on 5 minute bars, 50 account
// units at 20x with half the balance per trade and a 0.2% stop.
func Default() *Config {
	return &Config{
		Account: AccountConfig{
			Instrument:  "XAU_USD",
			Balance:     50,
			Leverage:    20,
			MarginRatio: 0.5,
		},
		Execution: ExecutionConfig{
			Spread:     market.Instruments["XAU_USD"].TypicalSpread,
			Stop:       "fixed",
			StopOffset: 0.002,
			Trigger:    "close",
		},
		Strategy: StrategyConfig{
			Name:       "band-reversion",
			Oversold:   30,
			Overbought: 70,
			Target:     "mid",
		},
		Indicators: IndicatorsConfig{
			RSIPeriod: 13,
			BBPeriod:  30,
			BBStdDev:  2,
			MAKind:    "sma",
		},
		Journal: JournalConfig{
			Type: "none",
		},
	}
}

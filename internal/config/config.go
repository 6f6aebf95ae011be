package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env"
	toml "github.com/pelletier/go-toml/v2"
	"github.com/sirupsen/logrus"

	"caltodo/internal/calendar"
)

const (
	AppName               = "caltodo"
	DefaultConfigFileName = "config.toml"
)

type Keymap struct {
	Quit      string `toml:"quit"`
	Add       string `toml:"add"`
	Up        string `toml:"up"`
	Down      string `toml:"down"`
	Left      string `toml:"left"`
	Right     string `toml:"right"`
	Select    string `toml:"select"`
	Focus     string `toml:"focus"`
	Done      string `toml:"done"`
	Delete    string `toml:"delete"`
	Clear     string `toml:"clear"`
	PrevMonth string `toml:"prev_month"`
	NextMonth string `toml:"next_month"`
	Confirm   string `toml:"confirm"`
	Cancel    string `toml:"cancel"`
}

type Config struct {
	// Overdue is "date" or "timestamp".
	Overdue  string `toml:"overdue"`
	LogPath  string `toml:"log_path"`
	LogLevel string `toml:"log_level"`
	Keys     Keymap `toml:"keys"`
}

type envOverrides struct {
	Overdue  string `env:"CALTODO_OVERDUE"`
	LogPath  string `env:"CALTODO_LOG_PATH"`
	LogLevel string `env:"CALTODO_LOG_LEVEL"`
}

// ResolveConfigPath picks $CALTODO_CONFIG, then the XDG config directory,
// then ~/.config.
func ResolveConfigPath() string {
	if p := os.Getenv("CALTODO_CONFIG"); p != "" {
		return p
	}
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName, DefaultConfigFileName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return DefaultConfigFileName
	}
	return filepath.Join(home, ".config", AppName, DefaultConfigFileName)
}

// LoadOrCreate reads the TOML file at path, writing the defaults first if
// it does not exist. Environment overrides are applied on top.
func LoadOrCreate(path string) (Config, error) {
	cfg := Default()
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := write(path, cfg); err != nil {
			return cfg, err
		}
		return applyEnv(cfg)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}
	cfg.Keys = cfg.Keys.withDefaults(Default().Keys)
	return applyEnv(cfg)
}

func applyEnv(cfg Config) (Config, error) {
	var o envOverrides
	if err := env.Parse(&o); err != nil {
		return cfg, fmt.Errorf("config: env: %w", err)
	}
	if o.Overdue != "" {
		cfg.Overdue = o.Overdue
	}
	if o.LogPath != "" {
		cfg.LogPath = o.LogPath
	}
	if o.LogLevel != "" {
		cfg.LogLevel = o.LogLevel
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	if _, err := calendar.ParseGranularity(c.Overdue); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("config: log_level: %w", err)
	}
	return nil
}

// Granularity is the parsed Overdue setting. Call Validate first.
func (c Config) Granularity() calendar.Granularity {
	g, _ := calendar.ParseGranularity(c.Overdue)
	return g
}

func write(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// withDefaults replaces blank bindings with the defaults.
func (k Keymap) withDefaults(def Keymap) Keymap {
	pick := func(v, d string) string {
		if v == "" {
			return d
		}
		return v
	}
	return Keymap{
		Quit:      pick(k.Quit, def.Quit),
		Add:       pick(k.Add, def.Add),
		Up:        pick(k.Up, def.Up),
		Down:      pick(k.Down, def.Down),
		Left:      pick(k.Left, def.Left),
		Right:     pick(k.Right, def.Right),
		Select:    pick(k.Select, def.Select),
		Focus:     pick(k.Focus, def.Focus),
		Done:      pick(k.Done, def.Done),
		Delete:    pick(k.Delete, def.Delete),
		Clear:     pick(k.Clear, def.Clear),
		PrevMonth: pick(k.PrevMonth, def.PrevMonth),
		NextMonth: pick(k.NextMonth, def.NextMonth),
		Confirm:   pick(k.Confirm, def.Confirm),
		Cancel:    pick(k.Cancel, def.Cancel),
	}
}

func Default() Config {
	return Config{
		Overdue:  string(calendar.GranularityDate),
		LogLevel: "info",
		Keys: Keymap{
			Quit:      "q",
			Add:       "a",
			Up:        "k",
			Down:      "j",
			Left:      "h",
			Right:     "l",
			Select:    "enter",
			Focus:     "tab",
			Done:      "x",
			Delete:    "d",
			Clear:     "c",
			PrevMonth: "<",
			NextMonth: ">",
			Confirm:   "enter",
			Cancel:    "esc",
		},
	}
}

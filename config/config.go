package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/scrumpoker/scrumpoker/globals"
)

const (
	defaultLogLevel           = "INFO"
	defaultMaxPlayers         = 20
	defaultGracePeriodSeconds = 30
	defaultRoomCleanupMinutes = 30
	defaultCleanupSpec        = "@every 1m"
)

// Config is the global configuration object which is filled via the
// configuration file, environment (SPOKER_ prefix) and command-line flags.
type Config struct {
	LogLevel string `mapstructure:"log_level"`

	// MaxPlayers is the per-room capacity, moderators included.
	MaxPlayers int `mapstructure:"max_players"`

	// GracePeriodSeconds is how long a disconnected player's seat is kept
	// for a seamless reconnection.
	GracePeriodSeconds int `mapstructure:"grace_period_seconds"`

	// RoomCleanupMinutes is the inactivity threshold after which an empty
	// room is garbage collected.
	RoomCleanupMinutes int `mapstructure:"room_cleanup_minutes"`

	// CleanupSpec is the cron expression of the periodic cleanup sweep.
	CleanupSpec string `mapstructure:"cleanup_spec"`
}

func (c *Config) GracePeriod() time.Duration {
	return time.Duration(c.GracePeriodSeconds) * time.Second
}

func (c *Config) CleanupThreshold() time.Duration {
	return time.Duration(c.RoomCleanupMinutes) * time.Minute
}

func GetFlagSet() *pflag.FlagSet {
	flagSet := pflag.NewFlagSet("configuration", pflag.ContinueOnError)
	flagSet.IntP("max-players", "m", defaultMaxPlayers, "maximum number of players per room")
	flagSet.String("log-level", defaultLogLevel, "log level")
	return flagSet
}

// wordSepNormalizeFunc allows for normalization of the flag names (which use - as a separator)
func wordSepNormalizeFunc(f *pflag.FlagSet, name string) pflag.NormalizedName {
	from := "-"
	to := "_"
	name = strings.Replace(name, from, to, -1)
	return pflag.NormalizedName(name)
}

// ReadConfiguration reads and parses the configuration located at configPath,
// which can either point to a single TOML file or to a directory, in which
// case all *.toml files in this directory are concatenated. It returns a
// Config object.
func ReadConfiguration(configPath string, flagSet *pflag.FlagSet) (*Config, error) {
	cfg := Config{}
	flagSet.SetNormalizeFunc(wordSepNormalizeFunc)
	viper.SetDefault("log_level", defaultLogLevel)
	viper.SetDefault("max_players", defaultMaxPlayers)
	viper.SetDefault("grace_period_seconds", defaultGracePeriodSeconds)
	viper.SetDefault("room_cleanup_minutes", defaultRoomCleanupMinutes)
	viper.SetDefault("cleanup_spec", defaultCleanupSpec)
	err := viper.BindPFlags(flagSet)
	if err != nil {
		globals.AppLogger.Error("could not bind flags (ignored)", "error", err)
	}
	viper.SetEnvPrefix("SPOKER")
	viper.AutomaticEnv()
	if configPath != "" {
		fi, err := os.Stat(configPath)
		if err != nil {
			return nil, err
		}
		contents := make([]byte, 0)
		files := []string{configPath}
		if fi.IsDir() {
			files, err = filepath.Glob(filepath.Join(configPath, "*.toml"))
			if err != nil {
				return nil, err
			}
		}
		for _, configFile := range files {
			fileContents, err := os.ReadFile(configFile)
			if err != nil {
				return nil, err
			}
			contents = append(contents, fileContents...)
			contents = append(contents, '\n')
		}
		viper.SetConfigType("toml")
		err = viper.ReadConfig(bytes.NewBuffer(contents))
		if err != nil {
			globals.AppLogger.Error("could not read config:", "error", err)
		}
	}
	err = viper.Unmarshal(&cfg)
	if err != nil {
		globals.AppLogger.Error("could not unmarshal config:", "error", err)
	}

	globals.AppLogger.Debug("config", "cfg", cfg)
	return &cfg, nil
}

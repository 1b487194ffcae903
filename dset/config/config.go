package config

import (
	"fmt"
	"path/filepath"
	"strings"

	internal "github.com/ZanzyTHEbar/domainset/dset"

	"github.com/spf13/viper"
)

// Config stores all configuration of the application.
// The values are read by viper from a config file or environment variables.
type Config struct {
	Pipeline PipelineConfig `mapstructure:"pipeline"`
}

// PipelineConfig carries everything one pipeline invocation needs: which
// source file to process, the block size, and the cache behavior knobs.
type PipelineConfig struct {
	ModelType     string `mapstructure:"modelType"`
	TrainDataFile string `mapstructure:"trainDataFile"`
	EvalDataFile  string `mapstructure:"evalDataFile"`
	BlockSize     int    `mapstructure:"blockSize"`
	Evaluate      bool   `mapstructure:"evaluate"`
	Variant       string `mapstructure:"variant"`
	// TokenizerVocab is the path to the WordPiece vocab.txt.
	TokenizerVocab string `mapstructure:"tokenizerVocab"`
	// UseManifest records builds in the libsql manifest next to the corpus.
	UseManifest bool `mapstructure:"useManifest"`
	// ChecksumKeys switches cache keying from filename-only to
	// content-checksummed names.
	ChecksumKeys bool `mapstructure:"checksumKeys"`
}

// SourcePath returns the data file this invocation processes.
func (p *PipelineConfig) SourcePath() string {
	if p.Evaluate {
		return p.EvalDataFile
	}
	return p.TrainDataFile
}

var AppConfig Config

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(configPath string) (*Config, error) {
	if configPath != "" {
		viper.SetConfigFile(configPath)
	} else {
		viper.AddConfigPath(".")
		viper.AddConfigPath(filepath.Join("etc", internal.DefaultAppName))
		viper.AddConfigPath(internal.DefaultConfigPath)
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	// Set default values
	viper.SetDefault("pipeline.modelType", internal.DefaultModelType)
	viper.SetDefault("pipeline.blockSize", internal.DefaultBlockSize)
	viper.SetDefault("pipeline.variant", internal.DefaultVariant)
	viper.SetDefault("pipeline.evaluate", false)
	viper.SetDefault("pipeline.useManifest", false)
	viper.SetDefault("pipeline.checksumKeys", false)

	viper.AutomaticEnv()                                   // Read in environment variables that match
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_")) // e.g. pipeline.blockSize becomes PIPELINE_BLOCKSIZE

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found; defaults will be used.
		} else {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	return &AppConfig, nil
}

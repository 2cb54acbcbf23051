package copyexamplegen

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

func loadConfig() {
	viper.SetConfigName("copyexamplegenrc")
	viper.AddConfigPath(".")
	viper.AddConfigPath("$HOME/.copyexamplegen")

	setupDefaults()

	viper.ReadInConfig()

	viper.SetEnvPrefix("copyexamplegen")
	viper.AutomaticEnv()
}

func setupDefaults() {
	defaultSettings := map[string]interface{}{
		"suffix":          ".gz",
		"overwrite":       string(OverwriteExisting),
		"split_prefix":    "Split-",
		"max_concurrency": 1, // Splits are copied one at a time unless raised
		"progress":        false,
		"verbose":         false,
	}
	for key, value := range defaultSettings {
		viper.SetDefault(key, value)
	}

	aliases := map[string]string{
		"verbose": "v",
	}
	for key, alias := range aliases {
		viper.RegisterAlias(alias, key)
	}
}

// OverwritePolicy decides what happens when a destination file already exists
type OverwritePolicy string

// Supported OverwritePolicies
const (
	OverwriteExisting OverwritePolicy = "overwrite" // replace the existing file
	SkipExisting      OverwritePolicy = "skip"      // keep the existing file
	ErrorOnExisting   OverwritePolicy = "error"     // fail the split
)

func parseOverwritePolicy(s string) (OverwritePolicy, error) {
	switch p := OverwritePolicy(s); p {
	case OverwriteExisting, SkipExisting, ErrorOnExisting:
		return p, nil
	}
	return "", fmt.Errorf("unknown overwrite policy %q (expected overwrite, skip or error)", s)
}

// config configures a Generator
type config struct {
	Suffix         string
	Overwrite      OverwritePolicy
	SplitPrefix    string
	MaxConcurrency int
	Progress       bool
	Verbose        bool

	logger  log.FieldLogger
	resolve resolver
}

func newConfig() (*config, error) {
	loadConfig() // Load viper config from settings file(s) and environment

	overwrite, err := parseOverwritePolicy(viper.GetString("overwrite"))
	if err != nil {
		return nil, err
	}
	return &config{
		Suffix:         viper.GetString("suffix"),
		Overwrite:      overwrite,
		SplitPrefix:    viper.GetString("split_prefix"),
		MaxConcurrency: viper.GetInt("max_concurrency"),
		Progress:       viper.GetBool("progress"),
		Verbose:        viper.GetBool("verbose"),
	}, nil
}

package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/JonMunkholm/csvmap/internal/config"
	"github.com/JonMunkholm/csvmap/internal/core"
	"github.com/JonMunkholm/csvmap/internal/logging"
)

// app holds state shared by all commands. Flag values are read through v so
// that a config file and CSVMAP_* environment variables can supply them.
type app struct {
	v       *viper.Viper
	cfgFile string
	log     *slog.Logger
}

// persistent flags bound to viper keys
var boundFlags = map[string]string{
	"delimiter":    "delimiter",
	"quote":        "quote",
	"header":       "header",
	"policy":       "policy",
	"compare":      "compare",
	"format":       "format",
	"log-level":    "log_level",
	"database-url": "database_url",
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New()}

	root := &cobra.Command{
		Use:           "csvmapctl",
		Short:         "csvmapctl reads CSV files into registered record types",
		Long:          `Parse, validate and import CSV exports using the record types registered with csvmap.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.initConfig(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "config file (default is $HOME/.csvmapctl.yaml)")
	pf.String("delimiter", ",", `field delimiter, a single character or "tab"`)
	pf.String("quote", `"`, "quote character")
	pf.String("header", "use", "header mode: none, skip or use")
	pf.String("policy", "abort", "error policy for bad values: abort or skip")
	pf.String("compare", "normalized", "header comparison: ordinal, ignore-case or normalized")
	pf.StringP("format", "o", "text", "output format: text, json or yaml")
	pf.String("log-level", "warn", "log level: debug, info, warn or error")
	pf.String("database-url", "", "Postgres connection string, required by import")
	for flag, key := range boundFlags {
		a.v.BindPFlag(key, pf.Lookup(flag))
	}

	root.AddCommand(
		newRecordsCmd(a),
		newDescribeCmd(a),
		newParseCmd(a),
		newValidateCmd(a),
		newImportCmd(a),
	)
	return root
}

func (a *app) initConfig(cmd *cobra.Command) error {
	if a.cfgFile != "" {
		a.v.SetConfigFile(a.cfgFile)
	} else {
		home, _ := os.UserHomeDir()
		a.v.AddConfigPath(home)
		a.v.SetConfigType("yaml")
		a.v.SetConfigName(".csvmapctl")
	}

	a.v.SetEnvPrefix("CSVMAP")
	a.v.AutomaticEnv()
	if err := a.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if a.cfgFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("read config: %w", err)
		}
	}

	a.log = logging.New(cmd.ErrOrStderr(), a.v.GetString("log_level"), "text")
	a.log.Debug("configuration", "file", a.v.ConfigFileUsed())
	return nil
}

// service builds a core service from the effective settings. db may be nil.
func (a *app) service(db core.TxBeginner) (*core.Service, error) {
	cfg := &config.Config{
		Reader: config.ReaderConfig{
			Delimiter:        a.v.GetString("delimiter"),
			Quote:            a.v.GetString("quote"),
			HeaderComparison: a.v.GetString("compare"),
			ErrorPolicy:      a.v.GetString("policy"),
			HeaderMode:       a.v.GetString("header"),
		},
		Upload: config.UploadConfig{
			BatchSize:     a.v.GetInt("batch_size"),
			MaxConcurrent: 1,
			MaxWaitTime:   time.Second,
			Timeout:       a.v.GetDuration("timeout"),
		},
	}
	opts, err := cfg.ServiceOptions(a.log)
	if err != nil {
		return nil, err
	}
	return core.NewService(db, opts), nil
}

package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/daimatz/jclass/internal/config"
	"github.com/daimatz/jclass/internal/logging"
	"github.com/daimatz/jclass/pkg/classloader"
)

var rootCmd = &cobra.Command{
	Use:           "jclass",
	Short:         "Inspect JVM class files on a classpath",
	Long:          "jclass decodes class files from directories, jars and jmods and resolves their inheritance without a JVM.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "config file (default .jclass.yaml)")
	flags.StringSliceP("classpath", "c", nil, "classpath entries (directories, .jar, .zip, .jmod or .class files)")
	flags.String("manifest", "", "TOML classpath manifest")
	flags.Bool("jdk", false, "append java.base.jmod from the local JDK")
	flags.BoolP("verbose", "v", false, "verbose output")

	_ = viper.BindPFlag("classpath", flags.Lookup("classpath"))
	_ = viper.BindPFlag("manifest", flags.Lookup("manifest"))
	_ = viper.BindPFlag("include_jdk", flags.Lookup("jdk"))
}

func initConfig() {
	if cfgFile, _ := rootCmd.Flags().GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName(".jclass")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
	}

	config.BindEnv(viper.GetViper())

	// It's fine if no config file is found; we use defaults.
	_ = viper.ReadInConfig()
}

// session is the state shared by every subcommand: configuration, a
// logger and a loader over the configured classpath.
type session struct {
	cfg    config.Config
	logger *slog.Logger
	loader *classloader.Loader
}

func newSession(cmd *cobra.Command) (*session, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	verbose, _ := cmd.Flags().GetBool("verbose")
	logger, err := logging.New(cmd.ErrOrStderr(), cfg.Log, verbose)
	if err != nil {
		return nil, err
	}

	cp, err := cfg.BuildClasspath()
	if err != nil {
		return nil, err
	}
	if cp.IsEmpty() {
		return nil, fmt.Errorf("classpath is empty; pass --classpath, --manifest or set JCLASS_CLASSPATH")
	}
	logger.Debug("classpath", "entries", cp.Entries())

	loader, err := classloader.New(cp,
		classloader.WithLogger(logger),
		classloader.WithCacheSize(cfg.CacheSize))
	if err != nil {
		return nil, err
	}
	if err := loader.Resolver().Validate(); err != nil {
		loader.Close()
		return nil, err
	}
	return &session{cfg: cfg, logger: logger, loader: loader}, nil
}

func (s *session) Close() error { return s.loader.Close() }

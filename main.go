package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/bryan-buckman/donorhub/internal/config"
	"github.com/bryan-buckman/donorhub/internal/logging"
)

var (
	cfgFile string
	cfg     config.Config
	rootCmd = &cobra.Command{
		Use:   "donorhub",
		Short: "Blood donation camps and urgent requests",
		Long: `donorhub serves donation camps and urgent blood requests, takes donor
registrations and appointments, and pulls camp announcements from organizers.`,
		SilenceUsage:      true,
		PersistentPreRunE: initConfig,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./donorhub.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "console", "log format (console, json)")
	rootCmd.PersistentFlags().String("db-driver", "sqlite", "database driver (sqlite, postgres)")
	rootCmd.PersistentFlags().String("db-path", "donorhub.db", "SQLite database file")
	rootCmd.PersistentFlags().String("db-url", "", "PostgreSQL connection URL")

	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("log.format", rootCmd.PersistentFlags().Lookup("log-format"))
	_ = viper.BindPFlag("database.driver", rootCmd.PersistentFlags().Lookup("db-driver"))
	_ = viper.BindPFlag("database.path", rootCmd.PersistentFlags().Lookup("db-path"))
	_ = viper.BindPFlag("database.url", rootCmd.PersistentFlags().Lookup("db-url"))

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(seedCmd())
	rootCmd.AddCommand(tokenCmd())
	rootCmd.AddCommand(campsCmd())
	rootCmd.AddCommand(urgentCmd())
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func initConfig(_ *cobra.Command, _ []string) error {
	v := viper.GetViper()
	if err := config.Init(v, cfgFile); err != nil {
		return err
	}
	loaded, err := config.Load(v)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if err := logging.Setup(loaded.Log.Level, loaded.Log.Format); err != nil {
		return fmt.Errorf("setup logging: %w", err)
	}
	if used := v.ConfigFileUsed(); used != "" {
		log.Debug().Str("file", used).Msg("Loaded config file")
	}
	cfg = loaded
	return nil
}

// Package cli implements the webrtc-direct command line.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rudransh-shrivastava/webrtc-direct/internal/config"
	"github.com/rudransh-shrivastava/webrtc-direct/internal/logger"
)

// app carries the state every subcommand shares once flags are parsed.
type app struct {
	configPath string
	logLevel   string

	conf config.Config
	log  *logrus.Logger
}

func (a *app) load(cmd *cobra.Command) error {
	conf := config.Default()
	if a.configPath != "" {
		var err error
		if conf, err = config.Load(a.configPath); err != nil {
			return err
		}
	}
	if a.logLevel != "" {
		conf.Log.Level = a.logLevel
	}

	log, err := logger.New(cmd.ErrOrStderr(), conf.Log.Level)
	if err != nil {
		return err
	}

	a.conf = conf
	a.log = log
	return nil
}

// NewRootCommand builds the command tree.
func NewRootCommand() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:           "webrtc-direct",
		Short:         "dial webrtc-direct peers",
		Long:          `webrtc-direct dials peers over a WebRTC data channel negotiated with a single signed HTTP offer/answer exchange`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load(cmd)
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.configPath, "config", "", "path to a TOML config file")
	rootCmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(newKeygenCmd(a))
	rootCmd.AddCommand(newIDCmd(a))
	rootCmd.AddCommand(newDialCmd(a))
	rootCmd.AddCommand(newPeersCmd(a))
	rootCmd.AddCommand(newListenCmd())
	return rootCmd
}

func Execute(ctx context.Context) {
	if err := NewRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

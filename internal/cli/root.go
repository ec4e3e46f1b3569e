// Package cli implements the practicectl commands.
package cli

import (
	"fmt"
	"io"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/yigit/practicelog/internal/bootstrap"
	"github.com/yigit/practicelog/internal/config"
)

var (
	configPath string
	formatFlag string
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:          "practicectl",
	Short:        "Inspect members and practice submissions",
	Long:         "Reads and writes the members and submissions collections with the same rules as the HTTP API.",
	SilenceUsage: true,
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default: $CONFIG_PATH or configs/config.yaml)")
	RootCmd.PersistentFlags().StringVarP(&formatFlag, "format", "f", "json", "Output format: json or text")
}

// openCore builds the data-access layer. Logs go to stderr so stdout stays parseable.
var openCore = func(cmd *cobra.Command) (*bootstrap.Core, error) {
	path := configPath
	if path == "" {
		path = config.GetEnv("CONFIG_PATH", bootstrap.DefaultConfigPath)
	}
	cfg, err := bootstrap.LoadConfig(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	lgr := bootstrap.SetupLogger(cfg, cmd.ErrOrStderr())
	return bootstrap.BuildCore(cfg, lgr)
}

func writeJSON(w io.Writer, v interface{}) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}

func textOutput() bool {
	return formatFlag == "text"
}

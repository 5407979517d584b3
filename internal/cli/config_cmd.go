package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/rileyhilliard/rtop/internal/config"
	"github.com/rileyhilliard/rtop/internal/errors"
	"github.com/rileyhilliard/rtop/internal/ui"
)

var configInitForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or create the rtop config file",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective config as YAML",
	Long: `Print the config rtop would run with: the config file if there is one,
defaults for everything it leaves out, and RTOP_* environment overrides.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return configShow(cmd.OutOrStdout())
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a config file with the defaults",
	Long: `Write the default config to the given path, or to
$XDG_CONFIG_HOME/rtop/config.yaml when no path is given.

Examples:
  rtop config init
  rtop config init ./rtop.yaml
  rtop config init --force`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := config.DefaultPath()
		if len(args) == 1 {
			path = config.Expand(args[0])
		}
		return configInit(cmd.OutOrStdout(), path, configInitForce, confirmOverwrite)
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file rtop reads",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return configPath(cmd.OutOrStdout())
	},
}

func init() {
	configInitCmd.Flags().BoolVarP(&configInitForce, "force", "f", false, "overwrite an existing config without asking")

	configCmd.AddCommand(configShowCmd, configInitCmd, configPathCmd)
	rootCmd.AddCommand(configCmd)
}

func configShow(w io.Writer) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}
	data, err := config.Marshal(cfg)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

func configPath(w io.Writer) error {
	path, err := config.Find(cfgFile)
	if err != nil {
		return err
	}
	if path == "" {
		fmt.Fprintf(w, "%s (not created yet, using defaults)\n", config.DefaultPath())
		return nil
	}
	fmt.Fprintln(w, path)
	return nil
}

// confirmFunc asks whether path may be overwritten.
type confirmFunc func(path string) (bool, error)

func configInit(w io.Writer, path string, force bool, confirm confirmFunc) error {
	if _, err := os.Stat(path); err == nil && !force {
		ok, err := confirm(path)
		if err != nil {
			return err
		}
		if !ok {
			ui.Skipped(w, "Cancelled.")
			return nil
		}
	}

	if err := config.Write(path, config.DefaultConfig()); err != nil {
		return err
	}
	ui.Success(w, "Wrote %s", path)
	return nil
}

func confirmOverwrite(path string) (bool, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return false, errors.New(errors.ErrConfig,
			fmt.Sprintf("Config file already exists: %s", path),
			"Use --force to overwrite")
	}

	var overwrite bool
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Config file '%s' already exists. Overwrite?", path)).
				Value(&overwrite),
		),
	)
	if err := form.Run(); err != nil {
		return false, errors.WrapWithCode(err, errors.ErrConfig,
			"Failed to get user input",
			"Try running with --force to overwrite")
	}
	return overwrite, nil
}

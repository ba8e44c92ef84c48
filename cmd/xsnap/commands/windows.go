package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/ashwalker/xsnap/internal/config"
	"github.com/ashwalker/xsnap/internal/display"
	"github.com/ashwalker/xsnap/internal/logger"
	"github.com/ashwalker/xsnap/internal/window"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

var windowsCmd = &cobra.Command{
	Use:   "windows",
	Short: "List capturable windows",
	Long: `List the windows currently known to the X server, with the ids,
titles and classes that the capture selectors match against.`,
	Example: `  # List windows in table format (default)
  xsnap windows

  # List windows in JSON format
  xsnap windows --output json`,
	RunE: runWindows,
}

var windowsOutput string

func init() {
	rootCmd.AddCommand(windowsCmd)

	windowsCmd.Flags().StringVarP(&windowsOutput, "output", "o", "table", "output format (table or json)")
}

func runWindows(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger.Init(cfg.LogLevel, isatty.IsTerminal(os.Stderr.Fd()))

	disp, err := display.Connect()
	if err != nil {
		return err
	}
	defer disp.Close()

	windows, err := window.NewDirectory(window.NewX11Source(disp)).List()
	if err != nil {
		return fmt.Errorf("failed to list windows: %w", err)
	}

	switch windowsOutput {
	case "json":
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(windows)
	case "table":
		return printWindowsTable(windows)
	default:
		return fmt.Errorf("unsupported output format: %s (use 'table' or 'json')", windowsOutput)
	}
}

func printWindowsTable(windows []*config.WindowInfo) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintln(w, "ID\tCLASS\tGEOMETRY\tTITLE")
	fmt.Fprintln(w, "--\t-----\t--------\t-----")

	for _, win := range windows {
		fmt.Fprintf(w, "0x%x\t%s\t%dx%d+%d+%d\t%s\n",
			win.ID, win.Class,
			win.Geometry.Width, win.Geometry.Height,
			win.Geometry.X, win.Geometry.Y,
			win.Title)
	}

	return nil
}

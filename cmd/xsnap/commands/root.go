package commands

import (
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/ashwalker/xsnap/internal/capture"
	"github.com/ashwalker/xsnap/internal/clipboard"
	"github.com/ashwalker/xsnap/internal/config"
	"github.com/ashwalker/xsnap/internal/display"
	"github.com/ashwalker/xsnap/internal/encoder"
	"github.com/ashwalker/xsnap/internal/logger"
	"github.com/ashwalker/xsnap/internal/output"
	"github.com/ashwalker/xsnap/internal/region"
	"github.com/ashwalker/xsnap/internal/window"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string

	flagName     string
	flagClass    string
	flagID       string
	flagPosition []int
	flagSize     []int
	flagScale    float64
	flagDelay    float64
	flagLogLevel string

	rootCmd = &cobra.Command{
		Use:   "xsnap",
		Short: "xsnap - X11 screenshot tool",
		Long: `xsnap captures a region of an X11 display - the full screen or a
specific window matched by name, class or id - and either copies the
encoded image to the clipboard or writes it to stdout.

When stdout is a terminal, xsnap claims the CLIPBOARD selection and
keeps serving paste requests until another application takes the
clipboard over. When stdout is piped or redirected, the image bytes
are written there directly and the process exits immediately.`,
		Example: `  # Full screen to clipboard (from a terminal)
  xsnap

  # Full screen to a file
  xsnap > screen.png

  # First window whose title contains "emacs", as jpeg
  xsnap --name emacs --format jpeg > emacs.jpg

  # Window by class, cropped
  xsnap --class Firefox --position 100 50 --size 800 600

  # Window by id (decimal or 0x-prefixed hex)
  xsnap --id 0x3400007

  # Wait 2 seconds before capturing
  xsnap --delay 2`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runCapture,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/xsnap/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "log level (debug, info, warn, error)")

	rootCmd.Flags().StringVarP(&flagName, "name", "n", "", "target the first window whose title contains this string")
	rootCmd.Flags().StringVarP(&flagClass, "class", "c", "", "target the first window whose class contains this string")
	rootCmd.Flags().StringVarP(&flagID, "id", "i", "", "target a window by X id (decimal or 0x-prefixed hex)")
	rootCmd.Flags().IntSliceVarP(&flagPosition, "position", "p", nil, "top-left corner of the capture region (x,y)")
	rootCmd.Flags().IntSliceVarP(&flagSize, "size", "s", nil, "size of the capture region (width,height)")
	rootCmd.Flags().StringP("format", "f", "", "output format (png, jpeg, gif, bmp)")
	rootCmd.Flags().IntP("quality", "q", 0, "jpeg quality (1-100)")
	rootCmd.Flags().Float64Var(&flagScale, "scale", 0, "resize factor applied before encoding")
	rootCmd.Flags().Float64VarP(&flagDelay, "delay", "d", 0, "seconds to wait before capturing")

	viper.BindPFlag("default_format", rootCmd.Flags().Lookup("format"))
	viper.BindPFlag("jpeg_quality", rootCmd.Flags().Lookup("quality"))
	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
}

// Execute runs the root command and maps any failure to its exit code.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "xsnap: %v\n", err)
		os.Exit(exitCode(err))
	}
}

// GetConfigFile returns the config file path
func GetConfigFile() string {
	return cfgFile
}

// loadConfig loads the persistent config and applies flag overrides
// through the viper bindings.
func loadConfig() (*config.Config, error) {
	configMgr, err := config.NewManager(cfgFile)
	if err != nil {
		return nil, err
	}

	cfg := configMgr.Get()
	if level := viper.GetString("log_level"); level != "" {
		cfg.LogLevel = level
	}
	if format := viper.GetString("default_format"); format != "" {
		cfg.DefaultFormat = format
	}
	if quality := viper.GetInt("jpeg_quality"); quality != 0 {
		cfg.JPEGQuality = quality
	}
	return cfg, nil
}

// buildRequest assembles the capture request from flags and config.
func buildRequest(cfg *config.Config) (*config.CaptureRequest, error) {
	var id uint32
	hasID := false
	if flagID != "" {
		parsed, err := strconv.ParseUint(flagID, 0, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid window id %q: %w", flagID, err)
		}
		id = uint32(parsed)
		hasID = true
	}

	target, err := config.NewTarget(flagName, flagClass, id, hasID)
	if err != nil {
		return nil, err
	}

	format, err := config.ParseFormat(cfg.DefaultFormat)
	if err != nil {
		return nil, err
	}

	req := &config.CaptureRequest{
		Target: target,
		Format: format,
		Scale:  flagScale,
		Delay:  time.Duration(flagDelay * float64(time.Second)),
	}

	if flagPosition != nil {
		if len(flagPosition) != 2 {
			return nil, fmt.Errorf("--position needs exactly two values, got %d", len(flagPosition))
		}
		req.OffsetX = flagPosition[0]
		req.OffsetY = flagPosition[1]
	}
	if flagSize != nil {
		if len(flagSize) != 2 {
			return nil, fmt.Errorf("--size needs exactly two values, got %d", len(flagSize))
		}
		req.Width = flagSize[0]
		req.Height = flagSize[1]
	}

	return req, nil
}

func runCapture(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger.Init(cfg.LogLevel, isatty.IsTerminal(os.Stderr.Fd()))
	log := logger.WithComponent("cli")

	req, err := buildRequest(cfg)
	if err != nil {
		return err
	}

	disp, err := display.Connect()
	if err != nil {
		return err
	}
	defer disp.Close()

	dir := window.NewDirectory(window.NewX11Source(disp))
	target, err := region.Resolve(req, dir)
	if err != nil {
		return err
	}
	if target.Window.Title != "" {
		log.Info().Str("title", target.Window.Title).Msg("Matched window")
	}

	if req.Delay > 0 {
		log.Info().Dur("delay", req.Delay).Msg("Waiting before capture")
		time.Sleep(req.Delay)
	}

	buf, err := capture.NewGrabber(capture.NewX11Source(disp)).Grab(target)
	if err != nil {
		return err
	}

	img, err := encoder.Encode(buf, req.Format, encoder.Options{
		JPEGQuality: cfg.JPEGQuality,
		Scale:       req.Scale,
	})
	if err != nil {
		return err
	}

	interactive := isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())

	session := clipboard.NewSession(clipboard.NewX11Conn(disp))
	if interactive {
		// Release selection ownership cleanly on interrupt; the serve
		// loop then sees its connection die and exits.
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		go func() {
			<-sigChan
			log.Info().Msg("Interrupted, releasing clipboard")
			session.Release()
			disp.Close()
		}()
	}

	router := &output.Router{Stdout: os.Stdout, Clipboard: session}
	return router.Route(img, interactive)
}

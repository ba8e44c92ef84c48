package commands

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/ashwalker/xsnap/internal/api"
	"github.com/ashwalker/xsnap/internal/config"
	"github.com/ashwalker/xsnap/internal/display"
	"github.com/ashwalker/xsnap/internal/logger"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve captures over HTTP",
	Long: `Start an HTTP server exposing the capture pipeline.

GET /api/screenshot takes the same selectors as the command line
(name, class, id) plus format and scale, and responds with the encoded
image. GET /api/windows lists capturable windows.`,
	Example: `  # Serve on the default port (8080)
  xsnap serve

  # Serve on a custom port
  xsnap serve --port 9090

  # Grab a window through the server
  curl 'localhost:8080/api/screenshot?name=emacs&format=png' > emacs.png`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", 0, "listen port (default is 8080)")
	viper.BindPFlag("serve_port", serveCmd.Flags().Lookup("port"))
}

func runServe(cmd *cobra.Command, args []string) error {
	configMgr, err := config.NewManager(GetConfigFile())
	if err != nil {
		return err
	}

	if viper.IsSet("serve_port") {
		if port := viper.GetInt("serve_port"); port > 0 {
			configMgr.SetServePort(port)
		}
	}
	if flagLogLevel != "" {
		configMgr.SetLogLevel(flagLogLevel)
	}

	cfg := configMgr.Get()
	logger.Init(cfg.LogLevel, isatty.IsTerminal(os.Stderr.Fd()))
	log := logger.WithComponent("cli")

	disp, err := display.Connect()
	if err != nil {
		return err
	}
	defer disp.Close()

	server := api.NewServer(disp, configMgr)
	errChan := make(chan error, 1)
	go func() {
		errChan <- server.Start(cfg.ServePort)
	}()

	log.Info().Int("port", cfg.ServePort).Msg("Serving captures over HTTP, press Ctrl+C to stop")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case <-sigChan:
		log.Info().Msg("Shutting down")
		return nil
	}
}

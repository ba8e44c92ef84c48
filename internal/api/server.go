// Package api exposes the capture pipeline over HTTP for the serve
// subcommand. Captures requested this way always go to the response
// body; the clipboard path is only meaningful for the interactive CLI.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/ashwalker/xsnap/internal/capture"
	"github.com/ashwalker/xsnap/internal/config"
	"github.com/ashwalker/xsnap/internal/display"
	"github.com/ashwalker/xsnap/internal/encoder"
	"github.com/ashwalker/xsnap/internal/logger"
	"github.com/ashwalker/xsnap/internal/region"
	"github.com/ashwalker/xsnap/internal/window"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

// Server represents the HTTP API server
type Server struct {
	router    *mux.Router
	disp      *display.Display
	configMgr *config.Manager
	upgrader  websocket.Upgrader
}

// NewServer creates a new API server
func NewServer(disp *display.Display, configMgr *config.Manager) *Server {
	s := &Server{
		router:    mux.NewRouter(),
		disp:      disp,
		configMgr: configMgr,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // local tool, no origin policy
			},
		},
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures the API routes
func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()

	api.HandleFunc("/screenshot", s.handleScreenshot).Methods("GET")
	api.HandleFunc("/screenshot/ws", s.handleScreenshotWS)
	api.HandleFunc("/windows", s.handleGetWindows).Methods("GET")
	api.HandleFunc("/health", s.handleHealth).Methods("GET")
}

// Start starts the HTTP server
func (s *Server) Start(port int) error {
	addr := fmt.Sprintf(":%d", port)
	logger.WithComponent("api").Info().Str("addr", addr).Msg("Starting HTTP server")
	return http.ListenAndServe(addr, s.router)
}

// requestFromQuery builds a capture request from query parameters:
// name, class, id, format, scale.
func (s *Server) requestFromQuery(r *http.Request) (*config.CaptureRequest, error) {
	q := r.URL.Query()

	var id uint32
	hasID := false
	if raw := q.Get("id"); raw != "" {
		parsed, err := strconv.ParseUint(raw, 0, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid window id %q: %w", raw, err)
		}
		id = uint32(parsed)
		hasID = true
	}

	target, err := config.NewTarget(q.Get("name"), q.Get("class"), id, hasID)
	if err != nil {
		return nil, err
	}

	formatName := q.Get("format")
	if formatName == "" {
		formatName = s.configMgr.Get().DefaultFormat
	}
	format, err := config.ParseFormat(formatName)
	if err != nil {
		return nil, err
	}

	scale := 0.0
	if raw := q.Get("scale"); raw != "" {
		if scale, err = strconv.ParseFloat(raw, 64); err != nil || scale <= 0 {
			return nil, fmt.Errorf("invalid scale %q", raw)
		}
	}

	return &config.CaptureRequest{Target: target, Format: format, Scale: scale}, nil
}

// captureImage runs the resolve -> grab -> encode pipeline.
func (s *Server) captureImage(req *config.CaptureRequest) (*encoder.EncodedImage, error) {
	dir := window.NewDirectory(window.NewX11Source(s.disp))
	target, err := region.Resolve(req, dir)
	if err != nil {
		return nil, err
	}

	buf, err := capture.NewGrabber(capture.NewX11Source(s.disp)).Grab(target)
	if err != nil {
		return nil, err
	}

	return encoder.Encode(buf, req.Format, encoder.Options{
		JPEGQuality: s.configMgr.Get().JPEGQuality,
		Scale:       req.Scale,
	})
}

func (s *Server) handleScreenshot(w http.ResponseWriter, r *http.Request) {
	req, err := s.requestFromQuery(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	img, err := s.captureImage(req)
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}

	w.Header().Set("Content-Type", img.Format.MimeType())
	w.Header().Set("Content-Length", strconv.Itoa(len(img.Bytes)))
	if _, err := w.Write(img.Bytes); err != nil {
		logger.WithComponent("api").Warn().Err(err).Msg("Failed to write screenshot response")
	}
}

// handleScreenshotWS serves captures on demand over a websocket: every
// text message from the client triggers one fresh capture, pushed back
// as a single binary frame.
func (s *Server) handleScreenshotWS(w http.ResponseWriter, r *http.Request) {
	req, err := s.requestFromQuery(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.WithComponent("api").Warn().Err(err).Msg("Websocket upgrade failed")
		return
	}
	defer conn.Close()

	log := logger.WithComponent("api")
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			log.Debug().Err(err).Msg("Websocket closed")
			return
		}

		img, err := s.captureImage(req)
		if err != nil {
			log.Warn().Err(err).Msg("Capture failed, closing websocket")
			_ = conn.WriteMessage(websocket.TextMessage, []byte(err.Error()))
			return
		}

		if err := conn.WriteMessage(websocket.BinaryMessage, img.Bytes); err != nil {
			log.Debug().Err(err).Msg("Websocket write failed")
			return
		}
	}
}

func (s *Server) handleGetWindows(w http.ResponseWriter, r *http.Request) {
	dir := window.NewDirectory(window.NewX11Source(s.disp))
	windows, err := dir.List()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(windows)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// statusFor maps pipeline errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, window.ErrTargetNotFound):
		return http.StatusNotFound
	case errors.Is(err, region.ErrInvalidRegion),
		errors.Is(err, config.ErrAmbiguousTarget):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Package server - HTTP, WebSocket, Lambda and NATS transports for the pipeline.
package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"

	"github.com/nvr-ai/go-detect/common"
	"github.com/nvr-ai/go-detect/results"
)

// LambdaInvokePath is the Lambda runtime emulator invocation path.
const LambdaInvokePath = "/2015-03-31/functions/function/invocations"

// maxBodyBytes bounds request bodies read by the HTTP handlers.
const maxBodyBytes = 64 << 20

// Pipeline runs a detection for a raw request body. *detector.Service
// satisfies it.
type Pipeline interface {
	HandleBody(ctx context.Context, body []byte) (results.Response, error)
}

// Options configures the HTTP router.
type Options struct {
	// CORSOrigins lists the allowed origins; "*" allows all.
	CORSOrigins []string
	// Metrics serves /metrics when set.
	Metrics http.Handler
	// Logger receives transport diagnostics.
	Logger logrus.FieldLogger
}

// Server holds the pipeline and the WebSocket upgrader.
type Server struct {
	pipeline Pipeline
	log      logrus.FieldLogger
	upgrader websocket.Upgrader
}

// New creates the transport server.
func New(p Pipeline, log logrus.FieldLogger) *Server {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Server{
		pipeline: p,
		log:      log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1 << 20,
			WriteBufferSize: 1 << 20,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

// Handler builds the router with CORS applied.
//
// Arguments:
//   - opts: Router options.
//
// Returns:
//   - http.Handler: The root handler.
func (s *Server) Handler(opts Options) http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/detect", s.handleDetect).Methods(http.MethodPost)
	r.HandleFunc(LambdaInvokePath, s.handleDetect).Methods(http.MethodPost)
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/ws", s.handleStream).Methods(http.MethodGet)
	if opts.Metrics != nil {
		r.Handle("/metrics", opts.Metrics).Methods(http.MethodGet)
	}

	origins := opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	c := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"*"},
	})
	return c.Handler(r)
}

func (s *Server) handleDetect(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		s.writeError(w, common.Wrap(common.KindRequest, "server.ReadBody", err))
		return
	}

	resp, err := s.pipeline.HandleBody(r.Context(), body)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleStream answers each text message with a Response or an ErrorBody.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.WithError(err).Warn("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.log.WithError(err).Debug("WebSocket read ended")
			}
			return
		}
		if msgType != websocket.TextMessage && msgType != websocket.BinaryMessage {
			continue
		}

		var reply interface{}
		resp, err := s.pipeline.HandleBody(r.Context(), data)
		if err != nil {
			reply = results.NewErrorBody(err)
		} else {
			reply = resp
		}
		if err := conn.WriteJSON(reply); err != nil {
			s.log.WithError(err).Debug("WebSocket write failed")
			return
		}
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	s.writeJSON(w, http.StatusInternalServerError, results.NewErrorBody(err))
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		s.log.WithError(errors.Wrap(err, "encode response")).Error("Response encoding failed")
		status = http.StatusInternalServerError
		data = []byte(`{"error":"response encoding failed"}`)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

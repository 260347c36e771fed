// Package web provides the HTTP plumbing for the webhook endpoint and monitor API.
package web

import (
	"context"
	"expvar"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/inbucket/inbound/pkg/config"
	"github.com/inbucket/inbound/pkg/extension"
	"github.com/inbucket/inbound/pkg/mandrill"
	"github.com/inbucket/inbound/pkg/message"
	"github.com/inbucket/inbound/pkg/msghub"
	"github.com/inbucket/inbound/pkg/stringutil"
	"github.com/rs/zerolog/log"
)

var (
	// Router sends incoming requests to the correct handler function.  Shared with the rest
	// package, which registers its routes on it.
	Router = mux.NewRouter()

	rootConfig *config.Root
	normalizer *mandrill.Normalizer
	handler    message.Handler
	extHost    *extension.Host
	msgHub     *msghub.Hub

	// ExpWebSocketConnectsCurrent tracks the number of open WebSockets
	ExpWebSocketConnectsCurrent = new(expvar.Int)
)

func init() {
	m := expvar.NewMap("http")
	m.Set("WebSocketConnectsCurrent", ExpWebSocketConnectsCurrent)
}

// Server defines an instance of the web server.
type Server struct {
	http         *http.Server
	listener     net.Listener
	shutdownChan chan bool
	done         chan struct{}
}

// NewServer sets up things for unit tests or the Start() method.
func NewServer(
	conf *config.Root,
	shutdownChan chan bool,
	n *mandrill.Normalizer,
	h message.Handler,
	ext *extension.Host,
	mh *msghub.Hub,
) *Server {
	rootConfig = conf
	normalizer = n
	handler = h
	extHost = ext
	msgHub = mh

	prefix := stringutil.MakePathPrefixer(conf.Web.BasePath)
	Router.Path(prefix("/debug/vars")).Handler(expvar.Handler()).Methods("GET")

	return &Server{
		http: &http.Server{
			Addr:         conf.Web.Addr,
			Handler:      requestLoggingWrapper(Router),
			ReadTimeout:  60 * time.Second,
			WriteTimeout: 60 * time.Second,
		},
		shutdownChan: shutdownChan,
		done:         make(chan struct{}),
	}
}

// Start begins listening for HTTP requests, returning once ctx is canceled.
func (s *Server) Start(ctx context.Context) {
	defer close(s.done)
	slog := log.With().Str("module", "web").Str("phase", "startup").Str("addr", s.http.Addr).
		Logger()
	var err error
	s.listener, err = net.Listen("tcp", s.http.Addr)
	if err != nil {
		slog.Error().Err(err).Msg("HTTP failed to start TCP listener")
		s.emergencyShutdown()
		return
	}
	slog.Info().Msg("HTTP listening on TCP")

	// Listener go routine
	go s.serve(ctx)

	<-ctx.Done()
	log.Debug().Str("module", "web").Str("phase", "shutdown").Msg("HTTP server shutting down on request")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		log.Error().Str("module", "web").Str("phase", "shutdown").Err(err).
			Msg("Failed to shutdown HTTP server")
	}
}

// Drain blocks until Start has returned and in-flight requests have completed.
func (s *Server) Drain() {
	<-s.done
}

// serve begins serving HTTP requests
func (s *Server) serve(ctx context.Context) {
	// server.Serve blocks until Shutdown closes the listener
	err := s.http.Serve(s.listener)

	select {
	case <-ctx.Done():
		// Nop
	default:
		log.Error().Str("module", "web").Str("phase", "runtime").Err(err).
			Msg("HTTP server failed")
		s.emergencyShutdown()
	}
}

func (s *Server) emergencyShutdown() {
	select {
	case <-s.shutdownChan:
	default:
		close(s.shutdownChan)
	}
}

// requestLoggingWrapper logs each request at debug level.
func requestLoggingWrapper(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		log.Debug().Str("module", "web").Str("remote", req.RemoteAddr).Str("proto", req.Proto).
			Str("method", req.Method).Str("path", req.RequestURI).Msg("Request")
		next.ServeHTTP(w, req)
	})
}

package server

import (
	"net/http"

	"github.com/rs/zerolog"
	"github.com/stevohstine/rolebase-access/auth"
	"github.com/stevohstine/rolebase-access/internal/config"
	"github.com/stevohstine/rolebase-access/token"
)

// Server wires the auth endpoints over net/http.
type Server struct {
	env     string
	mux     *http.ServeMux
	routes  []string
	config  config.Config
	auth    *auth.Service
	rotator *token.Rotator
	signer  *token.HMACSigner
	log     zerolog.Logger
}

func New(cfg config.Config, authService *auth.Service, rotator *token.Rotator, signer *token.HMACSigner, log zerolog.Logger) *Server {
	s := &Server{
		env:     cfg.GetEnv(),
		mux:     http.NewServeMux(),
		config:  cfg,
		auth:    authService,
		rotator: rotator,
		signer:  signer,
		log:     log,
	}

	s.initRoutes()
	s.logRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return
	}
	for _, route := range s.routes {
		s.log.Info().Str("route", route).Msg("registered")
	}
}

package main

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"satbridge/internal/constants"
	"satbridge/internal/middleware"
	"satbridge/internal/models"
	"satbridge/internal/privacy"
	"satbridge/internal/service"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// Server is the provisioning HTTP surface: one authenticated POST route for
// registering or rotating subscriptions, a health probe, and nothing else.
type Server struct {
	router   *mux.Router
	logger   *logrus.Logger
	registry service.SubscriptionRegistry
	secret   string
	addr     string
	server   *http.Server
}

func NewServer(cfg models.ProvisionConfig, registry service.SubscriptionRegistry, logger *logrus.Logger) *Server {
	s := &Server{
		router:   mux.NewRouter(),
		logger:   logger,
		registry: registry,
		secret:   cfg.Secret,
		addr:     fmt.Sprintf("%s:%d", cfg.Bind, cfg.Port),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(middleware.Observability(s.logger))

	s.router.HandleFunc("/health", s.handleHealth()).Methods(http.MethodGet)
	s.router.HandleFunc("/provision", s.handleProvision()).Methods(http.MethodPost)

	// Everything outside the two routes, wrong methods included, is a hard
	// 404; this endpoint exposes nothing else.
	notFound := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not_found", http.StatusNotFound)
	})
	s.router.NotFoundHandler = notFound
	s.router.MethodNotAllowedHandler = notFound
}

func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.addr,
		Handler:      s.router,
		ReadTimeout:  constants.DefaultServerReadSec * time.Second,
		WriteTimeout: constants.DefaultServerWriteSec * time.Second,
		IdleTimeout:  constants.DefaultServerIdleSec * time.Second,
	}

	s.logger.Infof("Provisioning endpoint listening on %s", s.addr)
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Handler returns the router, for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	}
}

func (s *Server) handleProvision() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.authorized(r) {
			http.Error(w, "bad_token", http.StatusUnauthorized)
			return
		}

		var req models.ProvisionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid_json", http.StatusBadRequest)
			return
		}

		req.Msisdn = strings.TrimSpace(req.Msisdn)
		req.Name = strings.TrimSpace(req.Name)
		req.VerifyCode = strings.TrimSpace(req.VerifyCode)
		req.WebhookURL = strings.TrimSpace(req.WebhookURL)
		req.BearerToken = strings.TrimSpace(req.BearerToken)
		if req.Msisdn == "" || req.Name == "" || req.VerifyCode == "" || req.WebhookURL == "" || req.BearerToken == "" {
			http.Error(w, "missing_fields", http.StatusBadRequest)
			return
		}

		// A re-provision of an existing pair rotates its credentials and
		// resets it to pending; the subscriber must verify again.
		existed, err := s.registry.Upsert(req.Msisdn, req.Name, models.SubscriptionPending, req.VerifyCode, req.WebhookURL, req.BearerToken)
		if err != nil {
			s.logger.WithError(err).Error("Provision upsert failed")
			http.Error(w, "internal_error", http.StatusInternalServerError)
			return
		}

		s.logger.WithFields(logrus.Fields{
			"msisdn":  privacy.MaskMsisdn(req.Msisdn),
			"name":    req.Name,
			"existed": existed,
		}).Info("Provision request accepted")

		if existed {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("updated"))
			return
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte("created"))
	}
}

// authorized checks the shared provisioning secret. An unconfigured secret
// rejects everything.
func (s *Server) authorized(r *http.Request) bool {
	if s.secret == "" {
		return false
	}
	auth := r.Header.Get("Authorization")
	if !strings.HasPrefix(strings.ToLower(auth), "bearer ") {
		return false
	}
	supplied := strings.TrimSpace(auth[len("bearer "):])
	return subtle.ConstantTimeCompare([]byte(supplied), []byte(s.secret)) == 1
}

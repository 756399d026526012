// Package api exposes the chain over HTTP and streams receipts over WebSocket.
package api

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/Shivam-Patel-G/earlybirds/core/relay-chain/chain"
	"github.com/Shivam-Patel-G/earlybirds/core/relay-chain/registry"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"
)

const Version = "1.0.0"

// Server wires the router, the middleware, the receipt hub and the account
// index.
type Server struct {
	chain    *chain.Blockchain
	hub      *Hub
	accounts *registry.AccountRegistry
	router   *mux.Router
	handler  http.Handler
	logger   *logrus.Logger
}

// NewServer builds the HTTP surface. An empty origins list allows any origin.
func NewServer(bc *chain.Blockchain, origins []string, logger *logrus.Logger) *Server {
	if logger == nil {
		logger = logrus.New()
	}
	s := &Server{
		chain:    bc,
		hub:      NewHub(bc.Subscribe, logger),
		accounts: registry.NewAccountRegistry(bc.Contract().Address(), logger),
		logger:   logger,
	}
	s.accounts.RegisterAccount(bc.Owner(), registry.SourceGenesis, false, time.Now())
	s.accounts.RegisterAccount(bc.Token().Address, registry.SourceGenesis, true, time.Now())
	s.accounts.RegisterAccount(bc.Contract().Address(), registry.SourceGenesis, true, time.Now())
	s.router = s.routes()

	c := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins(origins),
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", requestIDHeader},
		ExposedHeaders: []string{requestIDHeader},
	})
	s.handler = c.Handler(s.router)
	return s
}

func allowedOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(requestIDMiddleware, s.loggingMiddleware)

	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/contract", s.handleContract).Methods(http.MethodGet)

	r.HandleFunc("/campaigns", s.handleAddCampaign).Methods(http.MethodPost)
	r.HandleFunc("/campaigns", s.handleListCampaigns).Methods(http.MethodGet)
	r.HandleFunc("/campaigns/latest", s.handleLatestCampaign).Methods(http.MethodGet)
	r.HandleFunc("/campaigns/latest/close", s.handleCloseLatest).Methods(http.MethodPost)
	r.HandleFunc("/campaigns/latest/airdrop", s.handleAirdropLatest).Methods(http.MethodPost)
	r.HandleFunc("/campaigns/{id:[0-9]+}", s.handleGetCampaign).Methods(http.MethodGet)
	r.HandleFunc("/campaigns/{id:[0-9]+}/registrants", s.handleRegistrants).Methods(http.MethodGet)
	r.HandleFunc("/campaigns/{id:[0-9]+}/close", s.handleClose).Methods(http.MethodPost)
	r.HandleFunc("/campaigns/{id:[0-9]+}/airdrop", s.handleAirdrop).Methods(http.MethodPost)
	r.HandleFunc("/register", s.handleRegister).Methods(http.MethodPost)

	r.HandleFunc("/admin/demo", s.handleSetDemo).Methods(http.MethodPost)
	r.HandleFunc("/admin/admin", s.handleSetAdmin).Methods(http.MethodPost)
	r.HandleFunc("/admin/owner", s.handleTransferOwnership).Methods(http.MethodPost)

	r.HandleFunc("/tokens/wormies", s.handleTokenInfo).Methods(http.MethodGet)
	r.HandleFunc("/tokens/wormies/balances/{address}", s.handleBalance).Methods(http.MethodGet)
	r.HandleFunc("/tokens/wormies/transfer", s.handleTransfer).Methods(http.MethodPost)

	r.HandleFunc("/accounts", s.handleAccounts).Methods(http.MethodGet)
	r.HandleFunc("/accounts/{address}", s.handleAccount).Methods(http.MethodGet)

	r.HandleFunc("/receipts", s.handleReceipts).Methods(http.MethodGet)
	r.HandleFunc("/receipts/{hash}", s.handleReceipt).Methods(http.MethodGet)

	r.HandleFunc("/ws", s.hub.ServeWS)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "route not found"})
	})
	return r
}

func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) Hub() *Hub {
	return s.hub
}

func (s *Server) Accounts() *registry.AccountRegistry {
	return s.accounts
}

// Start runs the receipt hub and the account index until ctx is done. The
// returned channel closes once both have stopped.
func (s *Server) Start(ctx context.Context) <-chan struct{} {
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		s.hub.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		if err := s.accounts.Run(ctx, s.chain); err != nil {
			s.logger.WithError(err).Error("Account registry stopped")
		}
	}()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	return done
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	bgCtx, stopBackground := context.WithCancel(ctx)
	background := s.Start(bgCtx)

	server := &http.Server{
		Addr:              addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	errs := make(chan error, 1)
	go func() {
		s.logger.WithField("addr", addr).Info("API listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- err
		}
		close(errs)
	}()

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errs:
	}

	stopBackground()
	<-background

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil && runErr == nil {
		runErr = err
	}
	s.logger.Info("API stopped")
	return runErr
}

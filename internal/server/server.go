package server

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/muurk/pantti/internal/discovery"
	"github.com/muurk/pantti/internal/dom"
	"github.com/muurk/pantti/internal/element"
	"github.com/muurk/pantti/internal/logging"
)

// Config holds the server configuration
type Config struct {
	Host     string
	Port     int
	CertPath string // HTTPS certificate (optional)
	KeyPath  string // HTTPS private key (optional)

	// Advertise registers the server over mDNS as ServiceName.
	Advertise   bool
	ServiceName string

	// MountID is the id of the element the page renders into.
	MountID string

	// Version is reported by /health and the mDNS TXT record.
	Version string
}

// Host is the application the server presents.
type Host interface {
	// Dispatch queues a browser event for the element with targetID.
	Dispatch(targetID string, ev element.Event) bool
	// Snapshot returns the current mount point markup.
	Snapshot(ctx context.Context) (string, error)
}

// Server is the web host.
type Server struct {
	config     *Config
	host       Host
	hub        *Hub
	httpServer *http.Server
	tlsConfig  *tls.Config

	mu       sync.Mutex
	listener net.Listener
	advert   *discovery.Advertisement
}

// New creates a server for host.
func New(config *Config, host Host) (*Server, error) {
	if config == nil {
		return nil, errors.New("server config is nil")
	}
	if host == nil {
		return nil, errors.New("server host is nil")
	}
	if config.MountID == "" {
		config.MountID = dom.DefaultMountID
	}

	var tlsConfig *tls.Config
	if config.CertPath != "" || config.KeyPath != "" {
		if config.CertPath == "" || config.KeyPath == "" {
			return nil, errors.New("both certificate and key are required for TLS")
		}
		var err error
		tlsConfig, err = NewTLSConfig(config.CertPath, config.KeyPath)
		if err != nil {
			return nil, fmt.Errorf("failed to create TLS config: %w", err)
		}
	}

	s := &Server{
		config:    config,
		host:      host,
		hub:       NewHub(),
		tlsConfig: tlsConfig,
	}
	s.httpServer = &http.Server{
		Handler:           s.newRouter(),
		ReadHeaderTimeout: 10 * time.Second,
		TLSConfig:         tlsConfig,
	}
	return s, nil
}

// Handler returns the server's HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// OnRender publishes the mount point to every client. It is meant to be
// registered as the application's render hook and runs on the event loop.
func (s *Server) OnRender(mount *html.Node) {
	markup, err := dom.InnerHTML(mount)
	if err != nil {
		logging.Error("Failed to serialize mount point", zap.Error(err))
		return
	}
	s.hub.Broadcast(markup)
}

// Listen binds the configured address.
func (s *Server) Listen() error {
	addr := net.JoinHostPort(s.config.Host, fmt.Sprint(s.config.Port))

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	if s.tlsConfig != nil {
		listener = tls.NewListener(listener, s.tlsConfig)
	}

	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()

	logging.Info("Server listening for connections",
		zap.String("addr", listener.Addr().String()),
		zap.Any("tls_info", GetTLSInfo(s.tlsConfig)),
	)
	return nil
}

// Addr returns the bound address, or nil before Listen.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Start listens (unless Listen was already called), advertises when
// enabled and serves until ctx is done or serving fails.
func (s *Server) Start(ctx context.Context) error {
	if s.Addr() == nil {
		if err := s.Listen(); err != nil {
			return err
		}
	}

	s.mu.Lock()
	listener := s.listener
	s.mu.Unlock()

	if s.config.Advertise {
		port := listener.Addr().(*net.TCPAddr).Port
		advert, err := discovery.Advertise(s.config.ServiceName, port, s.advertText())
		if err != nil {
			logging.Warn("mDNS advertisement failed, continuing without it", zap.Error(err))
		} else {
			s.mu.Lock()
			s.advert = advert
			s.mu.Unlock()
		}
	}

	errChan := make(chan error, 1)
	go func() {
		errChan <- s.httpServer.Serve(listener)
	}()

	select {
	case <-ctx.Done():
		logging.Info("Shutdown requested, stopping server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.Shutdown(shutdownCtx)
	case err := <-errChan:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// advertText is the mDNS TXT record for this server.
func (s *Server) advertText() []string {
	scheme := "http"
	if s.tlsConfig != nil {
		scheme = "https"
	}
	return discovery.DefaultText(s.config.Version, scheme)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	logging.Info("Shutting down server...")

	s.mu.Lock()
	advert := s.advert
	s.advert = nil
	s.mu.Unlock()
	advert.Shutdown()

	// Hijacked WebSocket connections are not tracked by http.Server.
	s.hub.CloseAll()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		logging.Warn("Shutdown timeout, forcing close", zap.Error(err))
		_ = s.httpServer.Close()
	}

	logging.Sync()
	return nil
}

// GetActiveConnections returns the number of connected WebSocket clients
func (s *Server) GetActiveConnections() int {
	return s.hub.Count()
}

package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/dbiton/DoctorantMemory/internal/navtree"
)

// Server serves one navigation tree over HTTP.
type Server struct {
	router chi.Router
	log    *zap.Logger

	mu   sync.RWMutex
	tree *navtree.Tree
}

// New creates and configures the HTTP handler for tree.
func New(tree *navtree.Tree, log *zap.Logger) (*Server, error) {
	if err := navtree.Validate(tree); err != nil {
		return nil, fmt.Errorf("refusing to serve invalid tree: %w", err)
	}
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{
		tree: tree.Clone(),
		log:  log,
	}
	s.setupRoutes()
	return s, nil
}

// SetTree replaces the served tree. Invalid trees are rejected and the
// previous tree stays in place.
func (s *Server) SetTree(tree *navtree.Tree) error {
	if err := navtree.Validate(tree); err != nil {
		return fmt.Errorf("refusing to serve invalid tree: %w", err)
	}
	clone := tree.Clone()
	s.mu.Lock()
	s.tree = clone
	s.mu.Unlock()
	return nil
}

// Tree returns the tree currently served.
func (s *Server) Tree() *navtree.Tree {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tree
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	r.Get("/healthz", s.handleHealth)
	r.Get("/navtree.json", s.handleTree(navtree.FormatJSON))
	r.Get("/navtree.yaml", s.handleTree(navtree.FormatYAML))
	r.Get("/navtree.js", s.handleTree(navtree.FormatJS))
	r.Get("/navtree/*", s.handleSubtree)

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) handleTree(format navtree.Format) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.writeTree(w, s.Tree(), format)
	}
}

// handleSubtree resolves a slash separated title path, e.g.
// /navtree/ARM%20Port/ARM%20Port%20Design%20Document. The format query
// parameter selects json (default), yaml or js.
func (s *Server) handleSubtree(w http.ResponseWriter, r *http.Request) {
	format := navtree.FormatJSON
	if value := r.URL.Query().Get("format"); value != "" {
		parsed, err := navtree.ParseFormat(value)
		if err != nil {
			jsonError(w, err.Error(), http.StatusBadRequest)
			return
		}
		format = parsed
	}

	tree := s.Tree()
	path := titlePath(chi.URLParam(r, "*"))
	if len(path) == 0 {
		s.writeTree(w, tree, format)
		return
	}
	node, ok := navtree.Lookup(tree.Nodes, path)
	if !ok {
		jsonError(w, fmt.Sprintf("no node at %q", strings.Join(path, " > ")), http.StatusNotFound)
		return
	}
	s.writeTree(w, &navtree.Tree{Name: tree.Name, Nodes: []*navtree.Node{node}}, format)
}

func (s *Server) writeTree(w http.ResponseWriter, tree *navtree.Tree, format navtree.Format) {
	var buf bytes.Buffer
	if err := navtree.Encode(&buf, tree, format); err != nil {
		s.log.Error("failed to encode tree", zap.String("format", string(format)), zap.Error(err))
		jsonError(w, "failed to encode tree", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", contentType(format))
	w.Write(buf.Bytes())
}

func contentType(format navtree.Format) string {
	switch format {
	case navtree.FormatJS:
		return "application/javascript; charset=utf-8"
	case navtree.FormatYAML:
		return "application/yaml; charset=utf-8"
	default:
		return "application/json"
	}
}

func titlePath(raw string) []string {
	var path []string
	for _, segment := range strings.Split(raw, "/") {
		if segment == "" {
			continue
		}
		if decoded, err := url.PathUnescape(segment); err == nil {
			segment = decoded
		}
		path = append(path, segment)
	}
	return path
}

// ListenAndServe serves handler on addr until ctx is cancelled, then shuts
// down gracefully. ready, when set, receives the bound address.
func ListenAndServe(ctx context.Context, addr string, handler http.Handler, log *zap.Logger, ready func(net.Addr)) error {
	if log == nil {
		log = zap.NewNop()
	}
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	httpServer := &http.Server{
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.Serve(listener)
	}()
	log.Info("serving navigation tree", zap.String("addr", listener.Addr().String()))
	if ready != nil {
		ready(listener.Addr())
	}

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

package purchase

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"
)

// Server handles HTTP requests for purchases, templates and products
type Server struct {
	service *Service
	auth    TokenAuth
	mux     *http.ServeMux
}

// TokenAuth holds the bearer token API clients must present. An empty
// token disables authentication.
type TokenAuth struct {
	Token string
}

// NewServer creates a new Server with default mux
func NewServer(service *Service, auth TokenAuth) *Server {
	return NewServerWithMux(service, auth, http.NewServeMux())
}

// NewServerWithMux creates a new Server with a custom mux for testing
func NewServerWithMux(service *Service, auth TokenAuth, mux *http.ServeMux) *Server {
	s := &Server{
		service: service,
		auth:    auth,
		mux:     mux,
	}
	s.registerRoutes()
	return s
}

// authenticate checks the bearer credential
func (s *Server) authenticate(r *http.Request) bool {
	if s.auth.Token == "" {
		return true // no auth required if not configured
	}

	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return false
	}
	presented := strings.TrimPrefix(header, "Bearer ")

	return subtle.ConstantTimeCompare([]byte(presented), []byte(s.auth.Token)) == 1
}

// corsMiddleware adds CORS headers to responses
func (s *Server) corsMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		setCORSHeaders(w)

		// Handle preflight OPTIONS requests
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next(w, r)
	}
}

// requireAuth middleware
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.authenticate(r) {
			setCORSHeaders(w)
			w.Header().Set("WWW-Authenticate", `Bearer realm="tallyscan"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

// registerRoutes registers all API routes on the server's mux.
// Routes must be registered from most specific to least specific to
// avoid conflicts.
func (s *Server) registerRoutes() {
	// extraction endpoint
	s.mux.HandleFunc("POST /api/parse", s.requireAuth(s.handleParse))

	// purchases (most specific paths first)
	s.mux.HandleFunc("GET /api/purchases/{id}/file", s.requireAuth(s.handleGetPurchaseFile))
	s.mux.HandleFunc("GET /api/purchases/{id}", s.requireAuth(s.handleGetPurchase))
	s.mux.HandleFunc("DELETE /api/purchases/{id}", s.requireAuth(s.handleDeletePurchase))
	s.mux.HandleFunc("GET /api/purchases", s.requireAuth(s.handleListPurchases))
	s.mux.HandleFunc("POST /api/purchases", s.requireAuth(s.handleUploadPurchase))

	// templates
	s.mux.HandleFunc("GET /api/templates/{id}", s.requireAuth(s.handleGetTemplate))
	s.mux.HandleFunc("DELETE /api/templates/{id}", s.requireAuth(s.handleDeleteTemplate))
	s.mux.HandleFunc("GET /api/templates", s.requireAuth(s.handleListTemplates))
	s.mux.HandleFunc("POST /api/templates", s.requireAuth(s.handleCreateTemplate))

	// products
	s.mux.HandleFunc("GET /api/products", s.requireAuth(s.handleListProducts))
}

// Start starts the HTTP server
func (s *Server) Start(addr string) error {
	slog.Info("Starting server", "address", addr)
	// wrap the mux so OPTIONS preflights get CORS treatment too
	return http.ListenAndServe(addr, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.corsMiddleware(func(w http.ResponseWriter, r *http.Request) {
			s.mux.ServeHTTP(w, r)
		})(w, r)
	}))
}

// ServeHTTP implements http.Handler for testing
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

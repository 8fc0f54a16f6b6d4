package http

import (
	"context"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v2"
	"github.com/go-playground/validator/v10"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/vadimbarashkov/linkly/internal/entity"
	"github.com/vadimbarashkov/linkly/internal/usecase"
)

// LinkService defines the interface for the core link lifecycle logic.
type LinkService interface {
	// CreateLink validates the destination URL, assigns a short code and
	// persists the link. It returns the created link or a validation or
	// conflict error.
	CreateLink(ctx context.Context, params usecase.CreateLinkParams) (*entity.Link, error)

	// Resolve retrieves the link for a short code and counts the access.
	Resolve(ctx context.Context, shortCode string) (*entity.Link, error)

	// RegisterHit counts an access reported by an external redirector
	// without returning the destination.
	RegisterHit(ctx context.Context, shortCode string) error

	// GetLink retrieves link metadata without counting an access.
	GetLink(ctx context.Context, shortCode string) (*entity.Link, error)

	// ListLinks returns one page of links ordered by creation time descending.
	ListLinks(ctx context.Context, page, pageSize int) ([]entity.Link, error)

	// DeleteLink removes the link with the given short code.
	DeleteLink(ctx context.Context, shortCode string) error

	// ExportCSV serializes all links to CSV, uploads the file to object
	// storage and returns its public URL.
	ExportCSV(ctx context.Context) (string, error)

	// PublicURL computes the shareable URL for a short code.
	PublicURL(shortCode string) string
}

// getValidate initializes a new validator instance for validating incoming request payloads.
// It customizes tag name extraction from struct fields to match JSON tags.
func getValidate() *validator.Validate {
	validate := validator.New()

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return validate
}

// NewRouter initializes and returns a new HTTP router with all routes and middleware configured.
func NewRouter(logger *httplog.Logger, linkSvc LinkService) http.Handler {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"POST", "GET", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Accept"},
		AllowCredentials: false,
		MaxAge:           84600,
	}))
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(httplog.RequestLogger(logger))
	r.Use(middleware.Recoverer)

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/docs/swagger.yml"),
	))
	r.Get("/docs/swagger.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "./docs/swagger.yml")
	})

	r.Route("/api/v1", func(r chi.Router) {
		validate := getValidate()

		r.Get("/ping", handlePing)

		r.Route("/links", func(r chi.Router) {
			r.Post("/", handleCreateLink(linkSvc, validate))
			r.Get("/", handleListLinks(linkSvc, validate))
			r.Post("/export/csv", handleExportCSV(linkSvc))

			r.Route("/{shortCode}", func(r chi.Router) {
				r.Get("/", handleGetLink(linkSvc))
				r.Post("/hit", handleRegisterHit(linkSvc))
				r.Delete("/", handleDeleteLink(linkSvc))
			})
		})
	})

	r.Get("/{shortCode}", handleRedirect(linkSvc))

	return r
}

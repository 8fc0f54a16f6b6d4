package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httplog/v2"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"github.com/vadimbarashkov/linkly/internal/entity"
	"github.com/vadimbarashkov/linkly/internal/usecase"
	"github.com/vadimbarashkov/linkly/pkg/response"
)

// handlePing handles health check requests to ensure the server is running.
func handlePing(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "pong")
}

// createLinkRequest represents the request payload for creating a link.
// Charset and post-strip length rules for short_code and alias are enforced
// by the business layer, which owns the prefix-stripping logic.
type createLinkRequest struct {
	OriginalURL string `json:"original_url" validate:"required,max=2048"`
	ShortCode   string `json:"short_code" validate:"omitempty,max=50"`
	Alias       string `json:"alias" validate:"omitempty,max=58"`
}

// linkResponse represents the response payload for a link operation.
type linkResponse struct {
	ID          int64     `json:"id"`
	ShortCode   string    `json:"short_code"`
	OriginalURL string    `json:"original_url"`
	AccessCount int64     `json:"access_count"`
	CreatedAt   time.Time `json:"created_at"`
	URL         string    `json:"url"`
}

// toLinkResponse converts a link from the business layer into a response payload.
func toLinkResponse(link *entity.Link, publicURL string) linkResponse {
	return linkResponse{
		ID:          link.ID,
		ShortCode:   link.ShortCode,
		OriginalURL: link.OriginalURL,
		AccessCount: link.AccessCount,
		CreatedAt:   link.CreatedAt,
		URL:         publicURL,
	}
}

// handleCreateLink handles POST requests to create a shortened link.
//
// The request must contain a destination URL and may carry an explicit short
// code or an alias. The handler validates the payload shape, delegates the
// domain rules to the service and returns the created link with its public URL.
func handleCreateLink(svc LinkService, validate *validator.Validate) http.HandlerFunc {
	const op = "api.http.handleCreateLink"
	const successMsg = "The link has been created successfully."

	return func(w http.ResponseWriter, r *http.Request) {
		var req createLinkRequest

		if err := render.DecodeJSON(r.Body, &req); err != nil {
			if errors.Is(err, io.EOF) {
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, response.EmptyRequestBodyResponse)
				return
			}

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.BadRequestResponse)
			return
		}

		if err := validate.Struct(req); err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.ValidationErrorResponse(err))
			return
		}

		link, err := svc.CreateLink(r.Context(), usecase.CreateLinkParams{
			OriginalURL: req.OriginalURL,
			ShortCode:   req.ShortCode,
			Alias:       req.Alias,
		})
		if err != nil {
			var verr *entity.ValidationError

			switch {
			case errors.As(err, &verr):
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, response.FieldErrorResponse(verr.Field, verr.Reason))
			case errors.Is(err, entity.ErrURLNotAllowed):
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, response.URLNotAllowedResponse)
			case errors.Is(err, entity.ErrShortCodeExists):
				render.Status(r, http.StatusConflict)
				render.JSON(w, r, response.ShortCodeExistsResponse)
			default:
				httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})

				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, response.ServerErrorResponse)
			}

			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, response.SuccessResponse(successMsg, toLinkResponse(link, svc.PublicURL(link.ShortCode))))
	}
}

// handleRedirect handles GET requests on the public short URL.
//
// The handler resolves the short code, counts the access and redirects the
// client to the original destination, or returns a 404 error if the code is
// unknown.
func handleRedirect(svc LinkService) http.HandlerFunc {
	const op = "api.http.handleRedirect"

	return func(w http.ResponseWriter, r *http.Request) {
		shortCode := chi.URLParam(r, "shortCode")

		link, err := svc.Resolve(r.Context(), shortCode)
		if err != nil {
			if errors.Is(err, entity.ErrLinkNotFound) {
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, response.ResourceNotFoundResponse)
				return
			}

			httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.ServerErrorResponse)
			return
		}

		http.Redirect(w, r, link.OriginalURL, http.StatusMovedPermanently)
	}
}

// handleGetLink handles GET requests for link metadata.
//
// The handler fetches the link for the given short code without counting an
// access, returning the metadata or a 404 error if the code is unknown.
func handleGetLink(svc LinkService) http.HandlerFunc {
	const op = "api.http.handleGetLink"
	const successMsg = "The link was retrieved successfully."

	return func(w http.ResponseWriter, r *http.Request) {
		shortCode := chi.URLParam(r, "shortCode")

		link, err := svc.GetLink(r.Context(), shortCode)
		if err != nil {
			if errors.Is(err, entity.ErrLinkNotFound) {
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, response.ResourceNotFoundResponse)
				return
			}

			httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.ServerErrorResponse)
			return
		}

		render.Status(r, http.StatusOK)
		render.JSON(w, r, response.SuccessResponse(successMsg, toLinkResponse(link, svc.PublicURL(link.ShortCode))))
	}
}

// handleRegisterHit handles POST requests that report an out-of-band visit.
//
// A front end performing the redirect itself uses this endpoint to count the
// access; the destination is not returned.
func handleRegisterHit(svc LinkService) http.HandlerFunc {
	const op = "api.http.handleRegisterHit"
	const successMsg = "The access was counted successfully."

	return func(w http.ResponseWriter, r *http.Request) {
		shortCode := chi.URLParam(r, "shortCode")

		err := svc.RegisterHit(r.Context(), shortCode)
		if err != nil {
			if errors.Is(err, entity.ErrLinkNotFound) {
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, response.ResourceNotFoundResponse)
				return
			}

			httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.ServerErrorResponse)
			return
		}

		render.Status(r, http.StatusOK)
		render.JSON(w, r, response.SuccessResponse(successMsg))
	}
}

// listLinksQuery represents the validated pagination parameters.
type listLinksQuery struct {
	Page     int `json:"page" validate:"min=1"`
	PageSize int `json:"pageSize" validate:"min=10,max=100"`
}

// handleListLinks handles GET requests for one page of links.
//
// Links are returned ordered by creation time descending. Both parameters
// are optional; out-of-range values are rejected.
func handleListLinks(svc LinkService, validate *validator.Validate) http.HandlerFunc {
	const op = "api.http.handleListLinks"
	const successMsg = "The links were retrieved successfully."

	return func(w http.ResponseWriter, r *http.Request) {
		query := listLinksQuery{
			Page:     usecase.DefaultPage,
			PageSize: usecase.DefaultPageSize,
		}

		var parseErr error
		if raw := r.URL.Query().Get("page"); raw != "" {
			query.Page, parseErr = strconv.Atoi(raw)
		}
		if raw := r.URL.Query().Get("pageSize"); raw != "" && parseErr == nil {
			query.PageSize, parseErr = strconv.Atoi(raw)
		}
		if parseErr != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.BadRequestResponse)
			return
		}

		if err := validate.Struct(query); err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.ValidationErrorResponse(err))
			return
		}

		links, err := svc.ListLinks(r.Context(), query.Page, query.PageSize)
		if err != nil {
			httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.ServerErrorResponse)
			return
		}

		data := make([]linkResponse, 0, len(links))
		for i := range links {
			data = append(data, toLinkResponse(&links[i], svc.PublicURL(links[i].ShortCode)))
		}

		render.Status(r, http.StatusOK)
		render.JSON(w, r, response.SuccessResponse(successMsg, data))
	}
}

// handleDeleteLink handles DELETE requests to remove a link.
//
// After deletion the short code becomes available for reuse. The handler
// returns no content on success or a 404 error if the code is unknown.
func handleDeleteLink(svc LinkService) http.HandlerFunc {
	const op = "api.http.handleDeleteLink"

	return func(w http.ResponseWriter, r *http.Request) {
		shortCode := chi.URLParam(r, "shortCode")

		err := svc.DeleteLink(r.Context(), shortCode)
		if err != nil {
			if errors.Is(err, entity.ErrLinkNotFound) {
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, response.ResourceNotFoundResponse)
				return
			}

			httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.ServerErrorResponse)
			return
		}

		render.NoContent(w, r)
	}
}

// exportResponse represents the response payload for a CSV export.
type exportResponse struct {
	CSVURL string `json:"csv_url"`
}

// handleExportCSV handles POST requests to export all links as CSV.
//
// The generated file is uploaded to object storage and its public URL is
// returned. Exporting with no links is rejected.
func handleExportCSV(svc LinkService) http.HandlerFunc {
	const op = "api.http.handleExportCSV"
	const successMsg = "The links were exported successfully."

	return func(w http.ResponseWriter, r *http.Request) {
		csvURL, err := svc.ExportCSV(r.Context())
		if err != nil {
			if errors.Is(err, entity.ErrNothingToExport) {
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, response.NothingToExportResponse)
				return
			}

			httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.ServerErrorResponse)
			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, response.SuccessResponse(successMsg, exportResponse{CSVURL: csvURL}))
	}
}

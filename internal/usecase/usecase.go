// Package usecase implements the link lifecycle: creation with URL
// normalization and code assignment, resolution with access counting,
// listing, deletion and CSV export.
package usecase

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vadimbarashkov/linkly/internal/entity"
	"github.com/vadimbarashkov/linkly/internal/shortcode"
	"github.com/vadimbarashkov/linkly/internal/validation"
)

// ErrMaxRetriesExceeded is returned when the maximum number of retries for
// generating a unique short code is exceeded.
var ErrMaxRetriesExceeded = errors.New("maximum retries exceeded for generating short code")

const (
	DefaultPage     = 1
	DefaultPageSize = 10
	MinPageSize     = 10
	MaxPageSize     = 100
)

const csvContentType = "text/csv"

// LinkRepository defines the interface for working with links at the
// business logic layer.
type LinkRepository interface {
	// Save inserts a new link, failing with entity.ErrShortCodeExists
	// when the short code is already taken.
	Save(ctx context.Context, shortCode, originalURL string) (*entity.Link, error)

	// ByShortCode retrieves a link by its short code without side effects.
	ByShortCode(ctx context.Context, shortCode string) (*entity.Link, error)

	// IncrementAccessCount atomically increments the access counter of
	// the link with the given id.
	IncrementAccessCount(ctx context.Context, id int64) error

	// List returns one page of links ordered by creation time descending.
	List(ctx context.Context, page, pageSize int) ([]entity.Link, error)

	// Remove deletes a link by its short code and returns the removed id.
	Remove(ctx context.Context, shortCode string) (int64, error)

	// All returns every link ordered by creation time descending.
	All(ctx context.Context) ([]entity.Link, error)
}

// ObjectStorage is the narrow put-object capability used for exports.
type ObjectStorage interface {
	Put(ctx context.Context, key, contentType string, body []byte) (string, error)
}

// LinkService provides the link lifecycle operations. It holds no mutable
// state of its own; every operation is an independent unit of work against
// the repository.
type LinkService struct {
	repo     LinkRepository
	storage  ObjectStorage
	baseURL  string
	prodMode bool
}

func NewLinkService(repo LinkRepository, storage ObjectStorage, baseURL string, prodMode bool) *LinkService {
	return &LinkService{
		repo:     repo,
		storage:  storage,
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		prodMode: prodMode,
	}
}

// CreateLinkParams carries the creation input. ShortCode and Alias are
// optional; an alias takes precedence over an explicit short code.
type CreateLinkParams struct {
	OriginalURL string
	ShortCode   string
	Alias       string
}

// CreateLink validates and normalizes the destination URL, picks a short
// code and inserts the link. Insertion is optimistic: uniqueness is left to
// the store's constraint, and only randomly generated codes are retried on
// conflict. A conflict on a user-chosen code is returned to the caller.
func (s *LinkService) CreateLink(ctx context.Context, params CreateLinkParams) (*entity.Link, error) {
	const op = "usecase.LinkService.CreateLink"
	const maxRetries = 5

	originalURL, err := validation.NormalizeURL(params.OriginalURL, s.prodMode)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	userChosen := shortcode.UserChosen(params.Alias, params.ShortCode)

	for i := 0; i < maxRetries; i++ {
		code, err := shortcode.Resolve(params.Alias, params.ShortCode)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		link, err := s.repo.Save(ctx, code, originalURL)
		if err != nil {
			if errors.Is(err, entity.ErrShortCodeExists) && !userChosen {
				continue
			}

			return nil, fmt.Errorf("%s: failed to create link: %w", op, err)
		}

		return link, nil
	}

	return nil, fmt.Errorf("%s: %w", op, ErrMaxRetriesExceeded)
}

// Resolve looks up the link for a short code and counts the access. The
// increment is synchronous and runs inside the database, so concurrent
// resolutions of the same code all apply.
func (s *LinkService) Resolve(ctx context.Context, shortCode string) (*entity.Link, error) {
	const op = "usecase.LinkService.Resolve"

	link, err := s.repo.ByShortCode(ctx, shortCode)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to resolve short code: %w", op, err)
	}

	if err := s.repo.IncrementAccessCount(ctx, link.ID); err != nil {
		return nil, fmt.Errorf("%s: failed to count access: %w", op, err)
	}
	link.AccessCount++

	return link, nil
}

// RegisterHit counts an access reported out of band, without resolving the
// destination. Kept separate from Resolve: a front end that performs the
// redirect itself reports the visit through this path.
func (s *LinkService) RegisterHit(ctx context.Context, shortCode string) error {
	const op = "usecase.LinkService.RegisterHit"

	link, err := s.repo.ByShortCode(ctx, shortCode)
	if err != nil {
		return fmt.Errorf("%s: failed to find link: %w", op, err)
	}

	if err := s.repo.IncrementAccessCount(ctx, link.ID); err != nil {
		return fmt.Errorf("%s: failed to count access: %w", op, err)
	}

	return nil
}

// GetLink retrieves link metadata without touching the access counter.
func (s *LinkService) GetLink(ctx context.Context, shortCode string) (*entity.Link, error) {
	const op = "usecase.LinkService.GetLink"

	link, err := s.repo.ByShortCode(ctx, shortCode)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to get link: %w", op, err)
	}

	return link, nil
}

// ListLinks returns one page of links, newest first. Out-of-range inputs
// fall back to the defaults.
func (s *LinkService) ListLinks(ctx context.Context, page, pageSize int) ([]entity.Link, error) {
	const op = "usecase.LinkService.ListLinks"

	if page < 1 {
		page = DefaultPage
	}
	if pageSize < MinPageSize || pageSize > MaxPageSize {
		pageSize = DefaultPageSize
	}

	links, err := s.repo.List(ctx, page, pageSize)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to list links: %w", op, err)
	}

	return links, nil
}

// DeleteLink removes the link with the given short code.
func (s *LinkService) DeleteLink(ctx context.Context, shortCode string) error {
	const op = "usecase.LinkService.DeleteLink"

	if _, err := s.repo.Remove(ctx, shortCode); err != nil {
		return fmt.Errorf("%s: failed to delete link: %w", op, err)
	}

	return nil
}

// ExportCSV serializes every link to CSV and uploads the file to the object
// sink under a fresh unique key. It returns the public URL of the uploaded
// file, or entity.ErrNothingToExport when no links exist.
func (s *LinkService) ExportCSV(ctx context.Context) (string, error) {
	const op = "usecase.LinkService.ExportCSV"

	links, err := s.repo.All(ctx)
	if err != nil {
		return "", fmt.Errorf("%s: failed to read links: %w", op, err)
	}
	if len(links) == 0 {
		return "", fmt.Errorf("%s: %w", op, entity.ErrNothingToExport)
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	_ = w.Write([]string{"original_url", "short_code", "access_count", "created_at"})
	for _, link := range links {
		_ = w.Write([]string{
			link.OriginalURL,
			link.ShortCode,
			strconv.FormatInt(link.AccessCount, 10),
			link.CreatedAt.UTC().Format(time.RFC3339),
		})
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("%s: failed to serialize links: %w", op, err)
	}

	key := uuid.NewString() + ".csv"

	csvURL, err := s.storage.Put(ctx, key, csvContentType, buf.Bytes())
	if err != nil {
		return "", fmt.Errorf("%s: failed to upload export: %w", op, err)
	}

	return csvURL, nil
}

// PublicURL computes the shareable URL for a short code.
func (s *LinkService) PublicURL(shortCode string) string {
	return fmt.Sprintf("%s/%s", s.baseURL, shortCode)
}

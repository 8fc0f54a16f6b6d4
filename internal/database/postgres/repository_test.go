package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"

	"github.com/vadimbarashkov/linkly/internal/entity"
)

var (
	errUnknown      = errors.New("unknown error")
	errAffectedRows = errors.New("affected rows error")
)

var columns = []string{"id", "short_code", "original_url", "access_count", "created_at"}

func setupLinkRepository(t testing.TB) (*LinkRepository, sqlmock.Sqlmock) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}

	db := sqlx.NewDb(mockDB, "sqlmock")
	repo := NewLinkRepository(db)

	t.Cleanup(func() {
		mockDB.Close()
		db.Close()
	})

	return repo, mock
}

func TestLinkRepository_Save(t *testing.T) {
	t.Run("short code exists", func(t *testing.T) {
		repo, mock := setupLinkRepository(t)

		mock.ExpectQuery(`INSERT INTO links`).
			WithArgs("code1", "https://example.com").
			WillReturnError(&pgconn.PgError{Code: uniqueViolationErrCode})

		link, err := repo.Save(context.TODO(), "code1", "https://example.com")

		assert.Error(t, err)
		assert.ErrorIs(t, err, entity.ErrShortCodeExists)
		assert.Nil(t, link)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown error", func(t *testing.T) {
		repo, mock := setupLinkRepository(t)

		mock.ExpectQuery(`INSERT INTO links`).
			WithArgs("code1", "https://example.com").
			WillReturnError(errUnknown)

		link, err := repo.Save(context.TODO(), "code1", "https://example.com")

		assert.Error(t, err)
		assert.ErrorIs(t, err, errUnknown)
		assert.Nil(t, link)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("success", func(t *testing.T) {
		repo, mock := setupLinkRepository(t)

		rows := sqlmock.NewRows(columns).
			AddRow(1, "code1", "https://example.com", 0, time.Time{})

		mock.ExpectQuery(`INSERT INTO links`).
			WithArgs("code1", "https://example.com").
			WillReturnRows(rows)

		wantLink := entity.Link{
			ID:          1,
			ShortCode:   "code1",
			OriginalURL: "https://example.com",
		}

		link, err := repo.Save(context.TODO(), "code1", "https://example.com")

		assert.NoError(t, err)
		assert.NotNil(t, link)
		assert.Equal(t, wantLink, *link)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestLinkRepository_ByShortCode(t *testing.T) {
	t.Run("link not found", func(t *testing.T) {
		repo, mock := setupLinkRepository(t)

		mock.ExpectQuery(`SELECT (.+) FROM links`).
			WithArgs("code2").
			WillReturnError(sql.ErrNoRows)

		link, err := repo.ByShortCode(context.TODO(), "code2")

		assert.Error(t, err)
		assert.ErrorIs(t, err, entity.ErrLinkNotFound)
		assert.Nil(t, link)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown error", func(t *testing.T) {
		repo, mock := setupLinkRepository(t)

		mock.ExpectQuery(`SELECT (.+) FROM links`).
			WithArgs("code1").
			WillReturnError(errUnknown)

		link, err := repo.ByShortCode(context.TODO(), "code1")

		assert.Error(t, err)
		assert.ErrorIs(t, err, errUnknown)
		assert.Nil(t, link)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("success", func(t *testing.T) {
		repo, mock := setupLinkRepository(t)

		rows := sqlmock.NewRows(columns).
			AddRow(1, "code1", "https://example.com", 3, time.Time{})

		mock.ExpectQuery(`SELECT (.+) FROM links`).
			WithArgs("code1").
			WillReturnRows(rows)

		wantLink := entity.Link{
			ID:          1,
			ShortCode:   "code1",
			OriginalURL: "https://example.com",
			AccessCount: 3,
		}

		link, err := repo.ByShortCode(context.TODO(), "code1")

		assert.NoError(t, err)
		assert.NotNil(t, link)
		assert.Equal(t, wantLink, *link)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestLinkRepository_IncrementAccessCount(t *testing.T) {
	t.Run("unknown error", func(t *testing.T) {
		repo, mock := setupLinkRepository(t)

		mock.ExpectExec(`UPDATE links`).
			WithArgs(int64(1)).
			WillReturnError(errUnknown)

		err := repo.IncrementAccessCount(context.TODO(), 1)

		assert.Error(t, err)
		assert.ErrorIs(t, err, errUnknown)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rows affected error", func(t *testing.T) {
		repo, mock := setupLinkRepository(t)

		mock.ExpectExec(`UPDATE links`).
			WithArgs(int64(1)).
			WillReturnResult(sqlmock.NewErrorResult(errAffectedRows))

		err := repo.IncrementAccessCount(context.TODO(), 1)

		assert.Error(t, err)
		assert.ErrorIs(t, err, errAffectedRows)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("link not found", func(t *testing.T) {
		repo, mock := setupLinkRepository(t)

		mock.ExpectExec(`UPDATE links`).
			WithArgs(int64(2)).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.IncrementAccessCount(context.TODO(), 2)

		assert.Error(t, err)
		assert.ErrorIs(t, err, entity.ErrLinkNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("success", func(t *testing.T) {
		repo, mock := setupLinkRepository(t)

		mock.ExpectExec(`UPDATE links`).
			WithArgs(int64(1)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.IncrementAccessCount(context.TODO(), 1)

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestLinkRepository_List(t *testing.T) {
	t.Run("unknown error", func(t *testing.T) {
		repo, mock := setupLinkRepository(t)

		mock.ExpectQuery(`SELECT (.+) FROM links`).
			WithArgs(10, 0).
			WillReturnError(errUnknown)

		links, err := repo.List(context.TODO(), 1, 10)

		assert.Error(t, err)
		assert.ErrorIs(t, err, errUnknown)
		assert.Nil(t, links)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("offset from page", func(t *testing.T) {
		repo, mock := setupLinkRepository(t)

		rows := sqlmock.NewRows(columns).
			AddRow(1, "code1", "https://example.com", 0, time.Time{})

		mock.ExpectQuery(`SELECT (.+) FROM links`).
			WithArgs(10, 20).
			WillReturnRows(rows)

		links, err := repo.List(context.TODO(), 3, 10)

		assert.NoError(t, err)
		assert.Len(t, links, 1)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("success", func(t *testing.T) {
		repo, mock := setupLinkRepository(t)

		rows := sqlmock.NewRows(columns).
			AddRow(2, "code2", "https://example.org", 1, time.Time{}).
			AddRow(1, "code1", "https://example.com", 0, time.Time{})

		mock.ExpectQuery(`SELECT (.+) FROM links`).
			WithArgs(10, 0).
			WillReturnRows(rows)

		links, err := repo.List(context.TODO(), 1, 10)

		assert.NoError(t, err)
		assert.Len(t, links, 2)
		assert.Equal(t, "code2", links[0].ShortCode)
		assert.Equal(t, "code1", links[1].ShortCode)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestLinkRepository_Remove(t *testing.T) {
	t.Run("link not found", func(t *testing.T) {
		repo, mock := setupLinkRepository(t)

		mock.ExpectQuery(`DELETE FROM links`).
			WithArgs("code2").
			WillReturnError(sql.ErrNoRows)

		id, err := repo.Remove(context.TODO(), "code2")

		assert.Error(t, err)
		assert.ErrorIs(t, err, entity.ErrLinkNotFound)
		assert.Zero(t, id)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown error", func(t *testing.T) {
		repo, mock := setupLinkRepository(t)

		mock.ExpectQuery(`DELETE FROM links`).
			WithArgs("code1").
			WillReturnError(errUnknown)

		id, err := repo.Remove(context.TODO(), "code1")

		assert.Error(t, err)
		assert.ErrorIs(t, err, errUnknown)
		assert.Zero(t, id)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("success", func(t *testing.T) {
		repo, mock := setupLinkRepository(t)

		rows := sqlmock.NewRows([]string{"id"}).AddRow(1)

		mock.ExpectQuery(`DELETE FROM links`).
			WithArgs("code1").
			WillReturnRows(rows)

		id, err := repo.Remove(context.TODO(), "code1")

		assert.NoError(t, err)
		assert.Equal(t, int64(1), id)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestLinkRepository_All(t *testing.T) {
	t.Run("unknown error", func(t *testing.T) {
		repo, mock := setupLinkRepository(t)

		mock.ExpectQuery(`SELECT (.+) FROM links`).
			WillReturnError(errUnknown)

		links, err := repo.All(context.TODO())

		assert.Error(t, err)
		assert.ErrorIs(t, err, errUnknown)
		assert.Nil(t, links)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no links", func(t *testing.T) {
		repo, mock := setupLinkRepository(t)

		mock.ExpectQuery(`SELECT (.+) FROM links`).
			WillReturnRows(sqlmock.NewRows(columns))

		links, err := repo.All(context.TODO())

		assert.NoError(t, err)
		assert.Empty(t, links)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("success", func(t *testing.T) {
		repo, mock := setupLinkRepository(t)

		rows := sqlmock.NewRows(columns).
			AddRow(2, "code2", "https://example.org", 1, time.Time{}).
			AddRow(1, "code1", "https://example.com", 0, time.Time{})

		mock.ExpectQuery(`SELECT (.+) FROM links`).
			WillReturnRows(rows)

		links, err := repo.All(context.TODO())

		assert.NoError(t, err)
		assert.Len(t, links, 2)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

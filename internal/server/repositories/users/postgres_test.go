package users

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/questline/internal/common"
	"github.com/dmitrijs2005/questline/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

var userCols = []string{"id", "email", "password_hash", "xp", "level", "streak", "last_completed_date", "version", "created_at"}

const insertQ = `(?s)^INSERT\s+INTO\s+users\s*\(email,\s*password_hash,\s*xp,\s*level,\s*streak\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*\$4,\s*\$5\)\s*RETURNING\s+id,\s*version,\s*created_at\s*$`

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "version", "created_at"}).AddRow(int64(42), int64(0), now)
	mock.ExpectQuery(insertQ).
		WithArgs("alice@example.com", "hash", 0, 1, 0).
		WillReturnRows(rows)

	u := &models.User{Email: "alice@example.com", PasswordHash: "hash", Level: 1}
	got, err := repo.Create(context.Background(), u)
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if got.ID != 42 || got.Email != "alice@example.com" || !got.CreatedAt.Equal(now) {
		t.Fatalf("unexpected user: %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreate_Duplicate(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(insertQ).
		WithArgs("alice@example.com", "hash", 0, 1, 0).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	_, err := repo.Create(context.Background(), &models.User{Email: "alice@example.com", PasswordHash: "hash", Level: 1})
	if !errors.Is(err, common.ErrorAlreadyExists) {
		t.Fatalf("want common.ErrorAlreadyExists, got %v", err)
	}
}

func TestCreate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(insertQ).
		WithArgs("alice@example.com", "hash", 0, 1, 0).
		WillReturnError(errors.New("db down"))

	_, err := repo.Create(context.Background(), &models.User{Email: "alice@example.com", PasswordHash: "hash", Level: 1})
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestGetByEmail_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+id,\s*email,.*FROM\s+users\s+WHERE\s+email\s*=\s*\$1\s*$`

	last := time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(userCols).
		AddRow(int64(1), "alice@example.com", "hash", 540, 2, 5, last, int64(3), time.Now())
	mock.ExpectQuery(q).WithArgs("alice@example.com").WillReturnRows(rows)

	got, err := repo.GetByEmail(context.Background(), "alice@example.com")
	if err != nil {
		t.Fatalf("GetByEmail error: %v", err)
	}
	if got.ID != 1 || got.XP != 540 || got.Level != 2 || got.Streak != 5 || got.Version != 3 {
		t.Fatalf("unexpected user: %+v", got)
	}
	if got.LastCompletedDate == nil || !got.LastCompletedDate.Equal(last) {
		t.Fatalf("unexpected last date: %v", got.LastCompletedDate)
	}
}

func TestGetByID_NullDateAndNotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+id,\s*email,.*FROM\s+users\s+WHERE\s+id\s*=\s*\$1\s*$`

	rows := sqlmock.NewRows(userCols).
		AddRow(int64(7), "bob@example.com", "hash", 0, 1, 0, nil, int64(0), time.Now())
	mock.ExpectQuery(q).WithArgs(int64(7)).WillReturnRows(rows)
	mock.ExpectQuery(q).WithArgs(int64(8)).WillReturnError(sql.ErrNoRows)

	got, err := repo.GetByID(context.Background(), 7)
	if err != nil {
		t.Fatalf("GetByID error: %v", err)
	}
	if got.LastCompletedDate != nil {
		t.Fatalf("expected nil last date, got %v", got.LastCompletedDate)
	}

	_, err = repo.GetByID(context.Background(), 8)
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound, got %v", err)
	}
}

const updateQ = `(?s)^UPDATE\s+users\s+SET\s+xp\s*=\s*\$1,\s*level\s*=\s*\$2,\s*streak\s*=\s*\$3,\s*last_completed_date\s*=\s*\$4,\s*version\s*=\s*version\s*\+\s*1\s+WHERE\s+id\s*=\s*\$5\s+AND\s+version\s*=\s*\$6\s+RETURNING\s+version\s*$`

func TestUpdateProgress_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	day := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(updateQ).
		WithArgs(540, 2, 5, day, int64(1), int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow(int64(4)))

	u := &models.User{ID: 1, XP: 540, Level: 2, Streak: 5, LastCompletedDate: &day, Version: 3}
	if err := repo.UpdateProgress(context.Background(), u); err != nil {
		t.Fatalf("UpdateProgress error: %v", err)
	}
	if u.Version != 4 {
		t.Fatalf("expected version 4, got %d", u.Version)
	}
}

func TestUpdateProgress_Conflict(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(updateQ).
		WithArgs(10, 1, 1, nil, int64(1), int64(3)).
		WillReturnError(sql.ErrNoRows)

	u := &models.User{ID: 1, XP: 10, Level: 1, Streak: 1, Version: 3}
	err := repo.UpdateProgress(context.Background(), u)
	if !errors.Is(err, common.ErrVersionConflict) {
		t.Fatalf("want common.ErrVersionConflict, got %v", err)
	}
	if u.Version != 3 {
		t.Fatalf("version must not change on conflict, got %d", u.Version)
	}
}

func TestList_Ordered(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+id,.*FROM\s+users\s+ORDER\s+BY\s+id\s*$`
	rows := sqlmock.NewRows(userCols).
		AddRow(int64(1), "a@example.com", "h", 10, 1, 1, nil, int64(0), time.Now()).
		AddRow(int64(2), "b@example.com", "h", 20, 1, 2, nil, int64(0), time.Now())
	mock.ExpectQuery(q).WillReturnRows(rows)

	got, err := repo.List(context.Background())
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(got) != 2 || got[0].ID != 1 || got[1].ID != 2 {
		t.Fatalf("unexpected users: %+v", got)
	}
}

func TestListWithFriends(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+id,.*FROM\s+users\s+WHERE\s+id\s*=\s*\$1\s+OR\s+id\s+IN\s+\(SELECT\s+friend_id\s+FROM\s+friendships\s+WHERE\s+user_id\s*=\s*\$1\s+AND\s+status\s*=\s*\$2\)\s+ORDER\s+BY\s+id\s*$`
	rows := sqlmock.NewRows(userCols).
		AddRow(int64(1), "a@example.com", "h", 10, 1, 1, nil, int64(0), time.Now())
	mock.ExpectQuery(q).WithArgs(int64(1), "accepted").WillReturnRows(rows)

	got, err := repo.ListWithFriends(context.Background(), 1)
	if err != nil {
		t.Fatalf("ListWithFriends error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("unexpected users: %+v", got)
	}
}

func TestList_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)^SELECT`).WillReturnError(errors.New("db err"))

	_, err := repo.List(context.Background())
	if err == nil || !regexp.MustCompile(`db error: .*db err`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

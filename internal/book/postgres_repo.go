package book

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect registration
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	tableBooks  = "books"
	colID       = "id"
	colTitle    = "title"
	colAuthor   = "author"
	colOnLoan   = "on_loan"
	colLoanDate = "loan_date"
	colLoaneeID = "loanee_id"
)

var (
	dialect     = goqu.Dialect("postgres")
	bookColumns = []any{colID, colTitle, colAuthor, colOnLoan, colLoanDate, colLoaneeID}
)

type PostgresRepo struct {
	db      *pgxpool.Pool
	timeout time.Duration
}

func NewPostgresRepo(db *pgxpool.Pool, timeout time.Duration) *PostgresRepo {
	return &PostgresRepo{db: db, timeout: timeout}
}

func (r *PostgresRepo) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.timeout)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBook(row rowScanner) (Book, error) {
	var b Book
	err := row.Scan(&b.ID, &b.Title, &b.Author, &b.OnLoan, &b.LoanDate, &b.LoaneeID)
	return b, err
}

func (r *PostgresRepo) Insert(ctx context.Context, b Book) (Book, error) {
	query, args, err := buildInsert(b)
	if err != nil {
		return Book{}, err
	}

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	out, err := scanBook(r.db.QueryRow(timeoutCtx, query, args...))
	if err != nil {
		// ON CONFLICT DO NOTHING returns no row for an existing id.
		if errors.Is(err, pgx.ErrNoRows) {
			return Book{}, ErrAlreadyExists
		}
		return Book{}, fmt.Errorf("insert book: %w", err)
	}
	return out, nil
}

func (r *PostgresRepo) List(ctx context.Context, q ListQuery) ([]Book, error) {
	query, args, err := buildList(q)
	if err != nil {
		return nil, err
	}

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	rows, err := r.db.Query(timeoutCtx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	defer rows.Close()

	out := []Book{}
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) GetByID(ctx context.Context, id string) (Book, error) {
	query, args, err := dialect.From(tableBooks).
		Select(bookColumns...).
		Where(goqu.C(colID).Eq(id)).
		Prepared(true).
		ToSQL()
	if err != nil {
		return Book{}, fmt.Errorf("build select query: %w", err)
	}

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	b, err := scanBook(r.db.QueryRow(timeoutCtx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Book{}, ErrNotFound
		}
		return Book{}, fmt.Errorf("get book: %w", err)
	}
	return b, nil
}

func (r *PostgresRepo) Save(ctx context.Context, b Book) (Book, error) {
	query, args, err := buildSave(b)
	if err != nil {
		return Book{}, err
	}

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	out, err := scanBook(r.db.QueryRow(timeoutCtx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Book{}, ErrNotFound
		}
		return Book{}, fmt.Errorf("save book: %w", err)
	}
	return out, nil
}

func (r *PostgresRepo) Delete(ctx context.Context, id string) (Book, error) {
	query, args, err := dialect.Delete(tableBooks).
		Where(goqu.C(colID).Eq(id)).
		Returning(bookColumns...).
		Prepared(true).
		ToSQL()
	if err != nil {
		return Book{}, fmt.Errorf("build delete query: %w", err)
	}

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	b, err := scanBook(r.db.QueryRow(timeoutCtx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Book{}, ErrNotFound
		}
		return Book{}, fmt.Errorf("delete book: %w", err)
	}
	return b, nil
}

func buildInsert(b Book) (string, []any, error) {
	query, args, err := dialect.Insert(tableBooks).
		Rows(goqu.Record{
			colID:       b.ID,
			colTitle:    b.Title,
			colAuthor:   b.Author,
			colOnLoan:   b.OnLoan,
			colLoanDate: nullableTime(b.LoanDate),
			colLoaneeID: nullableString(b.LoaneeID),
		}).
		OnConflict(goqu.DoNothing()).
		Returning(bookColumns...).
		Prepared(true).
		ToSQL()
	if err != nil {
		return "", nil, fmt.Errorf("build insert query: %w", err)
	}
	return query, args, nil
}

func buildList(q ListQuery) (string, []any, error) {
	sel := dialect.From(tableBooks).
		Select(bookColumns...).
		Order(goqu.I(colID).Asc())
	if q.OnLoan != nil {
		sel = sel.Where(goqu.C(colOnLoan).Eq(*q.OnLoan))
	}

	query, args, err := sel.Prepared(true).ToSQL()
	if err != nil {
		return "", nil, fmt.Errorf("build list query: %w", err)
	}
	return query, args, nil
}

func buildSave(b Book) (string, []any, error) {
	query, args, err := dialect.Update(tableBooks).
		Set(goqu.Record{
			colTitle:    b.Title,
			colAuthor:   b.Author,
			colOnLoan:   b.OnLoan,
			colLoanDate: nullableTime(b.LoanDate),
			colLoaneeID: nullableString(b.LoaneeID),
		}).
		Where(goqu.C(colID).Eq(b.ID)).
		Returning(bookColumns...).
		Prepared(true).
		ToSQL()
	if err != nil {
		return "", nil, fmt.Errorf("build update query: %w", err)
	}
	return query, args, nil
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}

func nullableString(s *string) any {
	if s == nil || *s == "" {
		return nil
	}
	return *s
}

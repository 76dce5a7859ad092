package book

import (
	"errors"
	"time"
)

// IDLength is the fixed length of book and loanee identifiers.
const IDLength = 6

var (
	// ErrNotFound is returned when a book is not found.
	ErrNotFound = errors.New("book not found")
	// ErrAlreadyExists is returned when a book with the same id is already stored.
	ErrAlreadyExists = errors.New("book with this id already exists")
)

const (
	msgLoaneeRequired  = "loanee_id should be included when setting on_loan to True"
	msgLoaneeForbidden = "loanee_id should not be included when setting on_loan to False"
)

// ValidationError reports a violation of the loan invariant.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Book is one lendable book copy as persisted.
type Book struct {
	ID       string     `json:"id"`
	Title    string     `json:"title"`
	Author   string     `json:"author"`
	OnLoan   bool       `json:"on_loan"`
	LoanDate *time.Time `json:"loan_date"`
	LoaneeID *string    `json:"loanee_id"`
}

// CreateInput is the body of a create request. Loan fields are never taken from it.
// Title and author must be present but may be empty.
type CreateInput struct {
	ID     string  `json:"id" validate:"required,len=6"`
	Title  *string `json:"title" validate:"required"`
	Author *string `json:"author" validate:"required"`
}

// UpdateInput is the body of a loan update. A nil OnLoan means the field was absent.
type UpdateInput struct {
	OnLoan   *bool   `json:"on_loan" validate:"required"`
	LoaneeID *string `json:"loanee_id" validate:"omitempty,len=6"`
}

// LoanChange is an update that passed validation.
type LoanChange struct {
	OnLoan   bool
	LoaneeID string
}

// ListQuery filters the book listing. A nil OnLoan lists every book.
type ListQuery struct {
	OnLoan *bool
}

// Normalize treats an empty loanee_id as absent.
func (u *UpdateInput) Normalize() {
	if u.LoaneeID != nil && *u.LoaneeID == "" {
		u.LoaneeID = nil
	}
}

// NewBook returns an available book built from a create request.
func NewBook(in CreateInput) Book {
	return Book{
		ID:     in.ID,
		Title:  deref(in.Title),
		Author: deref(in.Author),
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// Validate checks the loan invariant for the update and normalises an empty
// loanee_id to absent.
func (u UpdateInput) Validate() (LoanChange, error) {
	onLoan := u.OnLoan != nil && *u.OnLoan
	loanee := ""
	if u.LoaneeID != nil {
		loanee = *u.LoaneeID
	}

	switch {
	case onLoan && loanee == "":
		return LoanChange{}, &ValidationError{Field: "loanee_id", Message: msgLoaneeRequired}
	case !onLoan && loanee != "":
		return LoanChange{}, &ValidationError{Field: "loanee_id", Message: msgLoaneeForbidden}
	}
	return LoanChange{OnLoan: onLoan, LoaneeID: loanee}, nil
}

// Apply returns the book with the loan change applied. Lending stamps now as
// the loan date, returning clears both loan fields.
func (b Book) Apply(c LoanChange, now time.Time) Book {
	if c.OnLoan {
		loanee := c.LoaneeID
		b.OnLoan = true
		b.LoaneeID = &loanee
		b.LoanDate = &now
		return b
	}
	b.OnLoan = false
	b.LoaneeID = nil
	b.LoanDate = nil
	return b
}

// CheckInvariant reports whether on_loan, loanee_id and loan_date agree.
func (b Book) CheckInvariant() error {
	hasLoanee := b.LoaneeID != nil && *b.LoaneeID != ""
	hasDate := b.LoanDate != nil
	if b.OnLoan && (!hasLoanee || !hasDate) {
		return &ValidationError{Field: "loanee_id", Message: msgLoaneeRequired}
	}
	if !b.OnLoan && (hasLoanee || hasDate) {
		return &ValidationError{Field: "loanee_id", Message: msgLoaneeForbidden}
	}
	return nil
}

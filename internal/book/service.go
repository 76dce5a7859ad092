package book

import (
	"context"
	"time"
)

// Service provides book loan business logic.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService creates a new book service using the wall clock.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// NewServiceWithClock creates a book service stamping loans with now.
func NewServiceWithClock(repo Repository, now func() time.Time) *Service {
	return &Service{repo: repo, now: now}
}

// Create stores a new available book.
func (s *Service) Create(ctx context.Context, in CreateInput) (Book, error) {
	return s.repo.Insert(ctx, NewBook(in))
}

// List returns all books matching the query.
func (s *Service) List(ctx context.Context, q ListQuery) ([]Book, error) {
	return s.repo.List(ctx, q)
}

// Get returns a book by its id.
func (s *Service) Get(ctx context.Context, id string) (Book, error) {
	return s.repo.GetByID(ctx, id)
}

// Update validates the loan change before touching the store, then applies it.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (Book, error) {
	change, err := in.Validate()
	if err != nil {
		return Book{}, err
	}

	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Book{}, err
	}

	next := current.Apply(change, s.now().UTC())
	if err := next.CheckInvariant(); err != nil {
		return Book{}, err
	}
	return s.repo.Save(ctx, next)
}

// Delete removes a book and returns the removed record.
func (s *Service) Delete(ctx context.Context, id string) (Book, error) {
	return s.repo.Delete(ctx, id)
}

package book

import (
	"context"
)

//go:generate mockgen -source=ports.go -destination=mock_ports.go -package=book

// Repository defines the contract for book data storage.
type Repository interface {
	Insert(ctx context.Context, b Book) (Book, error)
	List(ctx context.Context, q ListQuery) ([]Book, error)
	GetByID(ctx context.Context, id string) (Book, error)
	Save(ctx context.Context, b Book) (Book, error)
	Delete(ctx context.Context, id string) (Book, error)
}

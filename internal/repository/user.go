// Package repository defines the storage contracts of the repository layer.
// Repositories translate between a storage representation and plain records;
// validation, logging, and business rules live in the service layer.
package repository

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("repository: record not found")

	// ErrAlreadyExists is returned when a record with the same identifier
	// already exists.
	ErrAlreadyExists = errors.New("repository: record already exists")
)

// UserRecord is the plain storage representation of a user. It carries no
// behavior; domain objects are constructed in the service layer.
type UserRecord struct {
	ID        string
	Email     string
	Name      string
	CreatedAt time.Time
}

// UserRepository exposes CRUD-shaped operations over user records.
type UserRepository interface {
	Insert(ctx context.Context, record UserRecord) error
	FindByID(ctx context.Context, id string) (UserRecord, error)
	FindByEmail(ctx context.Context, email string) (UserRecord, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]UserRecord, error)
}

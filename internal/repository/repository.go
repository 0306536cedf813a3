package repository

import (
	"context"
	"database/sql"
	"time"

	"hubspace_bridge/internal/models"
	"hubspace_bridge/internal/repository/db"
)

// InitDB opens/creates the backing SQLite database and ensures the schema.
func InitDB(path string) (*sql.DB, error) {
	return db.InitDB(path)
}

type Authorization interface {
	Create(username, hash string) (int, error)
	GetByUsername(username string) (*models.User, error)
}

// EventRepo is the append-only audit log of control commands.
type EventRepo interface {
	Append(ctx context.Context, e models.CommandEvent) error
	List(ctx context.Context, from, to time.Time, typ string) ([]models.CommandEvent, error)
}

type Repository struct {
	EventRepo EventRepo
	Auth      Authorization
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		EventRepo: NewEventSQLite(db),
		Auth:      NewUserRepository(db),
	}
}

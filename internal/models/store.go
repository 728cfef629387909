package models

import (
	"github.com/jmoiron/sqlx"
)

// Store is the data access layer over the platform's relational tables.
type Store struct {
	db *sqlx.DB
}

func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// DB exposes the underlying handle for transaction helpers.
func (s *Store) DB() *sqlx.DB {
	return s.db
}

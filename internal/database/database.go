package database

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	_ "modernc.org/sqlite" // The pure Go SQLite driver
)

// ErrNotFound is returned by id-addressed mutations when no row matched.
// Handlers translate it to a 404; any other error is a real failure.
var ErrNotFound = errors.New("record not found")

// Service is the central struct for managing all database interactions.
// SQLite allows many concurrent readers but only one writer, so every write
// goes through a mutex-protected transaction while reads hit the pool directly.
type Service struct {
	db      *sql.DB
	writeMu sync.Mutex
	log     *zap.Logger
}

// NewService opens the SQLite database at dbPath and verifies the connection.
// `?_foreign_keys=on` is crucial for data integrity.
func NewService(dbPath string, log *zap.Logger) (*Service, error) {
	db, err := sql.Open("sqlite", dbPath+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("could not open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("could not connect to database: %w", err)
	}

	return &Service{db: db, log: log}, nil
}

// DB provides direct access to the underlying pool for read queries.
func (s *Service) DB() *sql.DB {
	return s.db
}

// Write executes a write operation (INSERT, UPDATE, DELETE) within a
// transaction, protected by a mutex to ensure serial access.
func (s *Service) Write(writeFunc func(tx *sql.Tx) error) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	// Execute the provided function. If it returns an error, roll back.
	if err := writeFunc(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("transaction error: %v, rollback error: %v", err, rbErr)
		}
		return err
	}

	return tx.Commit()
}

// Close safely closes the database connection when the application shuts down.
func (s *Service) Close() {
	if err := s.db.Close(); err != nil {
		s.log.Warn("error closing database", zap.Error(err))
		return
	}
	s.log.Info("database connection closed")
}

// DBorTx is an interface that allows query functions to accept either a
// `*sql.DB` for single queries or a `*sql.Tx` for operations within a
// transaction. This promotes code reuse.
type DBorTx interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
	QueryRow(query string, args ...interface{}) *sql.Row
	Query(query string, args ...interface{}) (*sql.Rows, error)
}

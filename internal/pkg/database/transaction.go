package database

import (
	"context"
	"database/sql"

	"gorm.io/gorm"
)

// TxFunc is a function executed within a transaction
type TxFunc func(tx *gorm.DB) error

// Transaction executes fn inside a database transaction
func (db *DB) Transaction(ctx context.Context, fn TxFunc) error {
	return db.DB.WithContext(ctx).Transaction(fn)
}

// TransactionWithOptions executes fn inside a transaction with custom options
func (db *DB) TransactionWithOptions(ctx context.Context, opts *sql.TxOptions, fn TxFunc) error {
	return db.DB.WithContext(ctx).Transaction(fn, opts)
}

// Serializable executes fn under serializable isolation
func (db *DB) Serializable(ctx context.Context, fn TxFunc) error {
	return db.TransactionWithOptions(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable}, fn)
}

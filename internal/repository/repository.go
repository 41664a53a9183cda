// Package repository contains typed gorm facades over the relational store.
// They hold no business rules.
package repository

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
)

// Repos groups every adapter over the same connection or transaction
type Repos struct {
	db *gorm.DB

	Users       *Users
	Keys        *Keys
	Teams       *Teams
	Members     *TeamMembers
	Invitations *TeamInvitations
	Shares      *Shares
	Folders     *Folders
	Files       *Files
}

func New(db *gorm.DB) *Repos {
	return &Repos{
		db:          db,
		Users:       &Users{db: db},
		Keys:        &Keys{db: db},
		Teams:       &Teams{db: db},
		Members:     &TeamMembers{db: db},
		Invitations: &TeamInvitations{db: db},
		Shares:      &Shares{db: db},
		Folders:     &Folders{db: db},
		Files:       &Files{db: db},
	}
}

// Transaction runs fn with adapters bound to a single transaction. Nothing fn
// writes is visible unless it returns nil.
func (r *Repos) Transaction(ctx context.Context, fn func(tx *Repos) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(New(tx))
	})
}

// IsNotFound reports whether err is gorm's missing record error
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// IsUniqueViolation reports whether err came from a unique constraint. Both
// the sqlite and postgres drivers are covered.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value violates unique constraint")
}

package social

import (
	"errors"
	"strings"
)

// Typed failures returned by the ledger, resolver and profile operations.
// Callers distinguish "already unfollowed" from "successfully unfollowed"
// through these; no operation silently no-ops.
var (
	ErrSelfRelation           = errors.New("social: cannot relate a profile to itself")
	ErrAlreadyRelated         = errors.New("social: relation already exists")
	ErrNoSuchRelation         = errors.New("social: no such relation")
	ErrConcurrentModification = errors.New("social: concurrent modification, retry")
	ErrPublicProfile          = errors.New("social: profile is not private")
	ErrProfileNotFound        = errors.New("social: profile not found")
)

// isUniqueViolation detects duplicate-key errors from common database drivers.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique") ||
		strings.Contains(msg, "duplicate") ||
		strings.Contains(msg, "already exists")
}

// isLockContention detects exhausted lock waits (MySQL 1205, SQLite busy).
func isLockContention(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "lock wait timeout") ||
		strings.Contains(msg, "deadlock") ||
		strings.Contains(msg, "database is locked")
}

// translateDBErr maps driver-level failures to the typed taxonomy.
func translateDBErr(err error) error {
	if isLockContention(err) {
		return ErrConcurrentModification
	}
	return err
}

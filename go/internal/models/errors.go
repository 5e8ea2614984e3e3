package models

import "errors"

// ErrConflict is returned when a save is rejected because the server's stored
// version moved past the version the client last observed.
var ErrConflict = errors.New("picks were updated in another session")

// ErrNotFound is returned when a game or player does not exist.
var ErrNotFound = errors.New("not found")

package models

import "errors"

var (
	ErrNoMacroSnapshot  = errors.New("no sane macro snapshot available")
	ErrSnapshotNotFound = errors.New("snapshot not found")
)

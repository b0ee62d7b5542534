package repository

import (
	"fmt"

	"github.com/immxrtalbeast/codecollab/internal/domain"
)

var (
	ErrSessionNotFound  = domain.ErrSessionNotFound
	ErrSnapshotNotFound = fmt.Errorf("snapshot %w", domain.ErrNotFound)
	ErrJoinCodeExists   = domain.ErrTokenCollision
)

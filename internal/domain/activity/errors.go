package activity

import "github.com/rpggio/probill/internal/domain/errkind"

// ErrInvalidInput indicates an unusable activity entry or filter.
var ErrInvalidInput = errkind.New(errkind.ErrInvalidInput, "invalid activity input")

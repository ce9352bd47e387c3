package registry

import "errors"

var (
	ErrEmptyRegistry    = errors.New("registry: no entries loaded")
	ErrMissingName      = errors.New("registry: entry has no site name")
	ErrMissingAccountID = errors.New("registry: entry has no account id")
	ErrInvalidDueDay    = errors.New("registry: due day outside 1..31")
	ErrDuplicateAccount = errors.New("registry: duplicate account id")
)

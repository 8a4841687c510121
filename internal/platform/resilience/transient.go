package resilience

import crerr "github.com/cockroachdb/errors"

// ErrTransient marks failures worth retrying later: timeouts, refused
// connections, 5xx and 429 answers.
var ErrTransient = crerr.New("transient dependency failure")

// Transient marks err so IsTransient reports true while keeping its message
// and chain.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return crerr.Mark(err, ErrTransient)
}

func IsTransient(err error) bool {
	return err != nil && crerr.Is(err, ErrTransient)
}

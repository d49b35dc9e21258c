package infra

import "fmt"

// NotFound joins a domain not-found sentinel with the repository error so
// callers can match either one.
func NotFound(domainErr error, msg string, err error) error {
	return fmt.Errorf("%w: %w", domainErr, WrapRepoErr(msg, err, KindNotFound))
}

// Package scrub provides security helpers for removing sensitive data from errors.
package scrub

import (
	"strings"
)

// Token removes the bot token from error messages.
// Go's http.Client.Do() includes the request URL (containing the token) in
// error strings. Preserves the error chain for errors.Is/As via Unwrap().
func Token(err error, token string) error {
	if err == nil {
		return nil
	}
	if token == "" {
		return err
	}
	msg := err.Error()
	if strings.Contains(msg, token) {
		return &scrubbedError{
			msg: strings.ReplaceAll(msg, token, "[REDACTED]"),
			err: err,
		}
	}
	return err
}

type scrubbedError struct {
	msg string
	err error
}

func (e *scrubbedError) Error() string { return e.msg }
func (e *scrubbedError) Unwrap() error { return e.err }

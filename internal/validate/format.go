// Package validate implements the syntactic email check that gates the rest
// of the validation pipeline. It is pure string work; no I/O happens here.
package validate

import (
	"errors"
	"regexp"
	"strings"
)

// ErrInvalidFormat is returned for addresses that fail the syntactic check.
var ErrInvalidFormat = errors.New("invalid email format")

// addressPattern is an RFC-5322-lite check: unquoted atom local parts with
// the common special characters, and dot-separated alphanumeric/hyphen
// domain labels with no leading or trailing hyphen.
var addressPattern = regexp.MustCompile(
	"^[a-zA-Z0-9.!#$%&'*+/=?^_`{|}~-]+" +
		"@[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?" +
		"(?:\\.[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)*$")

// Address is a parsed email address, split on the last "@".
type Address struct {
	Local  string
	Domain string
}

// String reassembles the address.
func (a Address) String() string {
	return a.Local + "@" + a.Domain
}

// ParseAddress validates the syntax of email and splits it into local part
// and domain. It returns ErrInvalidFormat for anything the pattern rejects.
func ParseAddress(email string) (Address, error) {
	if !addressPattern.MatchString(email) {
		return Address{}, ErrInvalidFormat
	}
	at := strings.LastIndex(email, "@")
	if at <= 0 || at == len(email)-1 {
		return Address{}, ErrInvalidFormat
	}
	return Address{Local: email[:at], Domain: email[at+1:]}, nil
}

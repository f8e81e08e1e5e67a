package rest

import (
	"net/mail"

	"github.com/dmitrijs2005/gatorauth/internal/cryptox"
	"github.com/dmitrijs2005/gatorauth/internal/server/apperr"
	"github.com/google/uuid"
)

const minPasswordLength = 8

// violations collects one message per field.
type violations map[string]string

func (v violations) add(field, msg string) {
	if _, ok := v[field]; !ok {
		v[field] = msg
	}
}

func (v violations) email(field, value string) {
	if value == "" {
		v.add(field, "Email is a required field.")
		return
	}
	addr, err := mail.ParseAddress(value)
	if err != nil || addr.Address != value {
		v.add(field, "Please enter a valid email address.")
	}
}

func (v violations) password(field, value string) {
	switch {
	case value == "":
		v.add(field, "Password is a required field.")
	case len(value) < minPasswordLength:
		v.add(field, "Password must be at least 8 characters long.")
	case len(value) > cryptox.MaxPasswordBytes:
		v.add(field, "Password must be at most 72 bytes long.")
	}
}

func (v violations) uuid(field, value string) {
	if value == "" {
		v.add(field, "User ID is required.")
		return
	}
	if _, err := uuid.Parse(value); err != nil || len(value) != 36 {
		v.add(field, "ID must be a valid UUID.")
	}
}

func (v violations) required(field, value, msg string) {
	if value == "" {
		v.add(field, msg)
	}
}

// err returns nil when nothing was violated.
func (v violations) err() *apperr.Error {
	if len(v) == 0 {
		return nil
	}
	return apperr.Validation(v)
}

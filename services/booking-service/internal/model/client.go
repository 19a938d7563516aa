package model

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// ClientStatus is the lower-cased trust classification. Values other than
// active and unknown are kept verbatim so they can be written back unchanged.
type ClientStatus string

const (
	ClientStatusActive  ClientStatus = "active"
	ClientStatusUnknown ClientStatus = "unknown"
)

func ParseClientStatus(raw string) ClientStatus {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return ClientStatusUnknown
	}
	return ClientStatus(s)
}

func (s ClientStatus) Trusted() bool { return s == ClientStatusActive }

// Label is the capitalised form stored on booking rows ("Active", "Unknown").
func (s ClientStatus) Label() string {
	if s == "" {
		return "Unknown"
	}
	r, n := utf8.DecodeRuneInString(string(s))
	return string(unicode.ToUpper(r)) + string(s[n:])
}

type Client struct {
	ID     string
	Name   string
	Email  string
	Status ClientStatus
}

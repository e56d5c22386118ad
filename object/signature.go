package object

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Signature represents the author/committer/tagger line of a commit
// or tag: a name, an email, and a timestamp with its UTC offset.
type Signature struct {
	Name  string
	Email string
	When  time.Time
}

// NewSignature returns a Signature stamped at t.
func NewSignature(name, email string, t time.Time) Signature {
	return Signature{Name: name, Email: email, When: t}
}

// String renders the signature in the on-disk
// "Name <email> unix-timestamp +zzzz" format.
func (s Signature) String() string {
	_, offset := s.When.Zone()
	sign := "+"
	if offset < 0 {
		sign = "-"
		offset = -offset
	}
	return fmt.Sprintf("%s <%s> %d %s%02d%02d",
		s.Name, s.Email, s.When.Unix(), sign, offset/3600, (offset%3600)/60)
}

// ParseSignature parses a "Name <email> unix-timestamp +zzzz" line.
func ParseSignature(line string) (Signature, error) {
	lt := strings.LastIndexByte(line, '<')
	gt := strings.LastIndexByte(line, '>')
	if lt == -1 || gt == -1 || gt < lt {
		return Signature{}, fmt.Errorf("%q: %w", line, ErrInvalidType)
	}
	name := strings.TrimSpace(line[:lt])
	email := line[lt+1 : gt]

	rest := strings.TrimSpace(line[gt+1:])
	fields := strings.Fields(rest)
	if len(fields) != 2 {
		return Signature{}, fmt.Errorf("%q: %w", line, ErrInvalidType)
	}
	sec, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return Signature{}, fmt.Errorf("invalid timestamp %q: %w", fields[0], err)
	}

	offset := fields[1]
	sign := int64(1)
	if strings.HasPrefix(offset, "-") {
		sign = -1
	}
	offset = strings.TrimPrefix(strings.TrimPrefix(offset, "+"), "-")
	if len(offset) != 4 {
		return Signature{}, fmt.Errorf("invalid offset %q: %w", fields[1], ErrInvalidType)
	}
	hours, err := strconv.ParseInt(offset[:2], 10, 64)
	if err != nil {
		return Signature{}, fmt.Errorf("invalid offset %q: %w", fields[1], err)
	}
	minutes, err := strconv.ParseInt(offset[2:], 10, 64)
	if err != nil {
		return Signature{}, fmt.Errorf("invalid offset %q: %w", fields[1], err)
	}
	offsetSeconds := int(sign * (hours*3600 + minutes*60))

	loc := time.FixedZone("", offsetSeconds)
	return Signature{
		Name:  name,
		Email: email,
		When:  time.Unix(sec, 0).In(loc),
	}, nil
}

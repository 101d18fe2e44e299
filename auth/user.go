package auth

import (
	"fmt"
	"unicode"
	"unicode/utf8"
)

// Privilege is an ordered capability tier. Higher values may do everything
// lower ones can.
type Privilege uint8

const (
	None     Privilege = 0
	ReadOnly Privilege = 1
	Staff    Privilege = 3
	Admin    Privilege = 7
)

func (p Privilege) String() string {
	switch p {
	case None:
		return "none"
	case ReadOnly:
		return "customer"
	case Staff:
		return "staff"
	case Admin:
		return "admin"
	}
	return fmt.Sprintf("privilege(%d)", uint8(p))
}

// Valid reports whether p is one of the assignable tiers.
func (p Privilege) Valid() bool {
	return p == ReadOnly || p == Staff || p == Admin
}

// User is one row of the user table.
type User struct {
	Username     string    `json:"username"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"password_hash"`
	Privilege    Privilege `json:"privilege"`
}

const (
	MaxUsernameLen = 30
	MaxNameLen     = 30
)

// validCredential accepts 1-30 characters of [A-Za-z0-9_]. Usernames and
// passwords share the rule.
func validCredential(s string) bool {
	if len(s) == 0 || len(s) > MaxUsernameLen {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !(c == '_' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z') {
			return false
		}
	}
	return true
}

func validName(s string) bool {
	if s == "" || !utf8.ValidString(s) || utf8.RuneCountInString(s) > MaxNameLen {
		return false
	}
	for _, r := range s {
		if !unicode.IsGraphic(r) || r != ' ' && unicode.IsSpace(r) {
			return false
		}
	}
	return true
}

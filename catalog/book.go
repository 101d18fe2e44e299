package catalog

import (
	"fmt"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Field limits.
const (
	MaxISBNLen = 20
	MaxTextLen = 60

	// KeywordSep separates keywords inside Book.Keywords.
	KeywordSep = "|"
)

// Book is one catalog record. Money is in minor currency units.
type Book struct {
	ISBN     string `json:"isbn"`
	Title    string `json:"title,omitempty"`
	Author   string `json:"author,omitempty"`
	Keywords string `json:"keywords,omitempty"`
	Price    int64  `json:"price"`
	Quantity int64  `json:"quantity"`
}

// KeywordList splits Keywords into its segments.
func (b Book) KeywordList() []string {
	if b.Keywords == "" {
		return nil
	}
	return strings.Split(b.Keywords, KeywordSep)
}

// HasKeyword reports whether kw is one of the book's keywords.
func (b Book) HasKeyword(kw string) bool {
	for _, k := range b.KeywordList() {
		if k == kw {
			return true
		}
	}
	return false
}

// Patch carries the fields a modify should overwrite. Empty strings and a
// nil Price leave the stored value alone. Quantity is never patched.
type Patch struct {
	ISBN     string
	Title    string
	Author   string
	Keywords string
	Price    *int64
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return p.ISBN == "" && p.Title == "" && p.Author == "" && p.Keywords == "" && p.Price == nil
}

// Price is a convenience for building a Patch literal.
func Price(v int64) *int64 { return &v }

func (p Patch) apply(b Book) Book {
	if p.ISBN != "" {
		b.ISBN = p.ISBN
	}
	if p.Title != "" {
		b.Title = p.Title
	}
	if p.Author != "" {
		b.Author = p.Author
	}
	if p.Keywords != "" {
		b.Keywords = p.Keywords
	}
	if p.Price != nil {
		b.Price = *p.Price
	}
	return b
}

// ValidateISBN reports whether s can be used as a book key.
func ValidateISBN(s string) error { return validISBN(s) }

func validISBN(s string) error {
	if s == "" || len(s) > MaxISBNLen {
		return fmt.Errorf("%w: isbn must be 1-%d characters", ErrInvalidArgument, MaxISBNLen)
	}
	for i := 0; i < len(s); i++ {
		if s[i] <= ' ' || s[i] > '~' {
			return fmt.Errorf("%w: isbn contains invisible character", ErrInvalidArgument)
		}
	}
	return nil
}

func validText(field, s string) error {
	if s == "" || utf8.RuneCountInString(s) > MaxTextLen {
		return fmt.Errorf("%w: %s must be 1-%d characters", ErrInvalidArgument, field, MaxTextLen)
	}
	if strings.TrimSpace(s) != s {
		return fmt.Errorf("%w: %s has surrounding space", ErrInvalidArgument, field)
	}
	for _, r := range s {
		// Inner blanks are allowed; tabs, newlines and control runes are not.
		if r == ' ' {
			continue
		}
		if r == '"' || r == utf8.RuneError || unicode.IsSpace(r) || !unicode.IsGraphic(r) {
			return fmt.Errorf("%w: %s contains %q", ErrInvalidArgument, field, r)
		}
	}
	return nil
}

// normalizeKeywords validates a '|' list and returns it sorted.
func normalizeKeywords(s string) (string, error) {
	parts := strings.Split(s, KeywordSep)
	seen := make(map[string]struct{}, len(parts))
	for _, kw := range parts {
		if err := validText("keyword", kw); err != nil {
			return "", err
		}
		if _, dup := seen[kw]; dup {
			return "", fmt.Errorf("%w: duplicated keyword %q", ErrInvalidArgument, kw)
		}
		seen[kw] = struct{}{}
	}
	sort.Strings(parts)
	return strings.Join(parts, KeywordSep), nil
}

// normalize checks every set field of b and canonicalizes keywords.
func normalize(b Book) (Book, error) {
	if err := validISBN(b.ISBN); err != nil {
		return b, err
	}
	if b.Title != "" {
		if err := validText("title", b.Title); err != nil {
			return b, err
		}
	}
	if b.Author != "" {
		if err := validText("author", b.Author); err != nil {
			return b, err
		}
	}
	if b.Keywords != "" {
		kw, err := normalizeKeywords(b.Keywords)
		if err != nil {
			return b, err
		}
		b.Keywords = kw
	}
	if b.Price < 0 {
		return b, fmt.Errorf("%w: negative price", ErrInvalidArgument)
	}
	if b.Quantity < 0 {
		return b, fmt.Errorf("%w: negative quantity", ErrInvalidArgument)
	}
	return b, nil
}

// validFilter checks a search filter. Keyword filters name one keyword.
func validFilter(f Book) error {
	if f.ISBN != "" {
		if err := validISBN(f.ISBN); err != nil {
			return err
		}
	}
	if f.Title != "" {
		if err := validText("title", f.Title); err != nil {
			return err
		}
	}
	if f.Author != "" {
		if err := validText("author", f.Author); err != nil {
			return err
		}
	}
	if f.Keywords != "" {
		if strings.Contains(f.Keywords, KeywordSep) {
			return fmt.Errorf("%w: search takes a single keyword", ErrInvalidArgument)
		}
		if err := validText("keyword", f.Keywords); err != nil {
			return err
		}
	}
	return nil
}

// matches applies the filter's non-empty fields as exact predicates.
func matches(b, f Book) bool {
	switch {
	case f.ISBN != "" && b.ISBN != f.ISBN:
		return false
	case f.Title != "" && b.Title != f.Title:
		return false
	case f.Author != "" && b.Author != f.Author:
		return false
	case f.Keywords != "" && !b.HasKeyword(f.Keywords):
		return false
	}
	return true
}

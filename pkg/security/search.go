package security

import (
	"errors"
	"regexp"
	"strings"
	"unicode"
)

// MaxSearchTermLength is the longest accepted user search term.
const MaxSearchTermLength = 100

var (
	// ErrSearchTooLong is returned for terms over MaxSearchTermLength runes.
	ErrSearchTooLong = errors.New("search term too long")
	// ErrSearchInvalid is returned for terms with characters outside the allowed set.
	ErrSearchInvalid = errors.New("search term contains invalid characters")
)

// suspiciousPatterns flag terms that look like SQL or script injection.
// Keywords are matched on word boundaries so names such as "Alexander Updike" still pass.
var suspiciousPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(union|select|insert|drop|alter|exec|execute)\b`),
	regexp.MustCompile(`(?i)\b(or|and)\s+\d+\s*=\s*\d+`),
	regexp.MustCompile(`(--|/\*|\*/)`),
	regexp.MustCompile(`(?i)\b(waitfor|sleep|benchmark)\b`),
	regexp.MustCompile(`(?i)(<script|javascript:|onerror=|onload=)`),
}

// NormalizeSearchTerm trims term and checks it is safe to use as a name/email filter.
// An empty term is valid and means "no filter".
func NormalizeSearchTerm(term string) (string, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return "", nil
	}
	if len([]rune(term)) > MaxSearchTermLength {
		return "", ErrSearchTooLong
	}

	for _, p := range suspiciousPatterns {
		if p.MatchString(term) {
			return "", ErrSearchInvalid
		}
	}

	for _, r := range term {
		if !allowedSearchRune(r) {
			return "", ErrSearchInvalid
		}
	}

	return term, nil
}

func allowedSearchRune(r rune) bool {
	if unicode.IsLetter(r) || unicode.IsNumber(r) {
		return true
	}
	switch r {
	case ' ', '-', '_', '.', '@', '+', '\'':
		return true
	}
	return false
}

// EscapeLike escapes LIKE wildcards so the term matches literally.
// Use together with ESCAPE '\'.
func EscapeLike(term string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(term)
}

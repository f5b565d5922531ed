package app

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"setquiz/internal/domain"
)

// AnswerFormat selects how a chosen answer is turned into the text sent for verification.
type AnswerFormat int

const (
	// FormatChoice sends the chosen choice string verbatim.
	FormatChoice AnswerFormat = iota
	// FormatSetLiteral expects a finite integer set such as "{1, 2, 3}".
	FormatSetLiteral
	// FormatNumeric expects a single integer.
	FormatNumeric
)

// NormalizeAnswer validates raw against the format and returns its canonical form.
func NormalizeAnswer(format AnswerFormat, raw string) (string, error) {
	switch format {
	case FormatSetLiteral:
		set, err := ParseSetLiteral(raw)
		if err != nil {
			return "", err
		}
		return FormatSet(set), nil
	case FormatNumeric:
		n, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return "", fmt.Errorf("%w: %q is not an integer", domain.ErrMalformedAnswer, raw)
		}
		return strconv.Itoa(n), nil
	default:
		return raw, nil
	}
}

// ParseSetLiteral parses "{1, 2, 3}" (or "[1,2,3]") into a sorted set without duplicates.
func ParseSetLiteral(raw string) ([]int, error) {
	s := strings.TrimSpace(raw)
	if len(s) < 2 {
		return nil, fmt.Errorf("%w: %q is not a set", domain.ErrMalformedAnswer, raw)
	}
	first, last := s[0], s[len(s)-1]
	if !(first == '{' && last == '}') && !(first == '[' && last == ']') {
		return nil, fmt.Errorf("%w: %q is not a set", domain.ErrMalformedAnswer, raw)
	}
	body := strings.TrimSpace(s[1 : len(s)-1])
	if body == "" {
		return []int{}, nil
	}

	seen := make(map[int]struct{})
	out := make([]int, 0)
	for _, part := range strings.Split(body, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("%w: bad element %q", domain.ErrMalformedAnswer, part)
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	sort.Ints(out)
	return out, nil
}

// FormatSet renders a set in canonical "{1, 2, 3}" form.
func FormatSet(set []int) string {
	parts := make([]string, len(set))
	for i, n := range set {
		parts[i] = strconv.Itoa(n)
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// SameAnswer compares two answers as sets when both parse as set literals,
// otherwise as trimmed strings.
func SameAnswer(expected, given string) bool {
	a, errA := ParseSetLiteral(expected)
	b, errB := ParseSetLiteral(given)
	if errA == nil && errB == nil {
		if len(a) != len(b) {
			return false
		}
		for i := range a {
			if a[i] != b[i] {
				return false
			}
		}
		return true
	}
	return strings.TrimSpace(expected) == strings.TrimSpace(given)
}

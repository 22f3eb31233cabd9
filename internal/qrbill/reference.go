package qrbill

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrOrderIDTooLarge is returned when an order id needs more than 22 digits.
	ErrOrderIDTooLarge = errors.New("order id does not fit in 22 digits")
	// ErrNotNumeric is returned for a reference with characters other than digits.
	ErrNotNumeric = errors.New("reference must contain digits only")
)

// mod10Table is the Modulo 10 recursive carry table used by Swiss payment
// references (ISR / QR reference).
var mod10Table = [10][10]int{
	{0, 9, 4, 6, 8, 2, 7, 1, 3, 5},
	{9, 4, 6, 8, 2, 7, 1, 3, 5, 0},
	{4, 6, 8, 2, 7, 1, 3, 5, 0, 9},
	{6, 8, 2, 7, 1, 3, 5, 0, 9, 4},
	{8, 2, 7, 1, 3, 5, 0, 9, 4, 6},
	{2, 7, 1, 3, 5, 0, 9, 4, 6, 8},
	{7, 1, 3, 5, 0, 9, 4, 6, 8, 2},
	{1, 3, 5, 0, 9, 4, 6, 8, 2, 7},
	{3, 5, 0, 9, 4, 6, 8, 2, 7, 1},
	{5, 0, 9, 4, 6, 8, 2, 7, 1, 3},
}

var checkDigits = [10]int{0, 9, 8, 7, 6, 5, 4, 3, 2, 1}

const (
	referenceIDDigits = 22
	referenceFiller   = "0000"
	referenceLength   = 27
)

// Mod10Recursive runs digits through the carry table and returns the check
// digit that completes them.
func Mod10Recursive(digits string) (int, error) {
	carry := 0
	for _, r := range digits {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("%q: %w", digits, ErrNotNumeric)
		}
		carry = mod10Table[carry][r-'0']
	}
	return checkDigits[carry], nil
}

// ReferenceNumber builds the 27 digit QR reference for an order, formatted
// in blocks for printing ("00 00000 00000 00000 00001 00002").
func ReferenceNumber(orderID uint64) (string, error) {
	return ReferenceFromDigits(strconv.FormatUint(orderID, 10))
}

// ReferenceFromDigits is ReferenceNumber for an id given as a digit string,
// which may exceed the uint64 range but not 22 digits.
func ReferenceFromDigits(id string) (string, error) {
	id = strings.TrimLeft(StripSpaces(id), "0")
	if len(id) > referenceIDDigits {
		return "", fmt.Errorf("order %s: %w", id, ErrOrderIDTooLarge)
	}
	base := strings.Repeat("0", referenceIDDigits-len(id)) + id + referenceFiller
	check, err := Mod10Recursive(base)
	if err != nil {
		return "", err
	}
	return FormatReference(base + strconv.Itoa(check)), nil
}

// FormatReference groups a 27 digit reference as 2+5+5+5+5+5. Other lengths
// are grouped by five from the right.
func FormatReference(ref string) string {
	ref = StripSpaces(ref)
	if ref == "" {
		return ""
	}
	var groups []string
	for end := len(ref); end > 0; end -= 5 {
		start := end - 5
		if start < 0 {
			start = 0
		}
		groups = append([]string{ref[start:end]}, groups...)
	}
	return strings.Join(groups, " ")
}

// StripSpaces removes every blank from a reference or IBAN.
func StripSpaces(s string) string {
	return strings.Join(strings.Fields(s), "")
}

// ValidReference reports whether ref is a 27 digit reference whose check digit
// verifies: the carry over all 27 digits has to end at zero.
func ValidReference(ref string) bool {
	ref = StripSpaces(ref)
	if len(ref) != referenceLength {
		return false
	}
	check, err := Mod10Recursive(ref)
	return err == nil && check == 0
}

package qrbill

import (
	"math/big"
	"strconv"
	"strings"
)

// ValidIBAN checks length, country prefix and the ISO 7064 mod 97 checksum.
// Spaces are ignored.
func ValidIBAN(iban string) bool {
	iban = strings.ToUpper(StripSpaces(iban))
	if len(iban) < 15 || len(iban) > 34 {
		return false
	}
	for i, r := range iban {
		switch {
		case i < 2 && (r < 'A' || r > 'Z'):
			return false
		case i >= 2 && i < 4 && (r < '0' || r > '9'):
			return false
		case (r < 'A' || r > 'Z') && (r < '0' || r > '9'):
			return false
		}
	}
	if (iban[:2] == "CH" || iban[:2] == "LI") && len(iban) != 21 {
		return false
	}

	rearranged := iban[4:] + iban[:4]
	var digits strings.Builder
	for _, r := range rearranged {
		if r >= 'A' && r <= 'Z' {
			digits.WriteString(strconv.Itoa(int(r-'A') + 10))
			continue
		}
		digits.WriteRune(r)
	}
	n, ok := new(big.Int).SetString(digits.String(), 10)
	if !ok {
		return false
	}
	return new(big.Int).Mod(n, big.NewInt(97)).Int64() == 1
}

// IsQRIBAN reports whether iban is a valid Swiss or Liechtenstein IBAN whose
// institution id lies in the QR range 30000-31999.
func IsQRIBAN(iban string) bool {
	iban = strings.ToUpper(StripSpaces(iban))
	if !ValidIBAN(iban) {
		return false
	}
	if iban[:2] != "CH" && iban[:2] != "LI" {
		return false
	}
	iid, err := strconv.Atoi(iban[4:9])
	if err != nil {
		return false
	}
	return iid >= 30000 && iid <= 31999
}

var uidWeights = [8]int{5, 4, 3, 2, 7, 6, 5, 4}

// ValidUID validates a Swiss enterprise identification number
// (CHE-123.456.789, optionally followed by MWST/TVA/IVA) with its mod 11 check.
func ValidUID(uid string) bool {
	digits := UIDDigits(uid)
	if !strings.HasPrefix(strings.ToUpper(strings.TrimSpace(uid)), "CHE") || len(digits) != 9 {
		return false
	}
	sum := 0
	for i, w := range uidWeights {
		sum += int(digits[i]-'0') * w
	}
	check := 11 - sum%11
	if check == 11 {
		check = 0
	}
	if check == 10 {
		return false
	}
	return int(digits[8]-'0') == check
}

// UIDDigits returns the numeric part of a UID ("CHE-123.456.789 MWST" -> "123456789").
func UIDDigits(uid string) string {
	var b strings.Builder
	for _, r := range uid {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

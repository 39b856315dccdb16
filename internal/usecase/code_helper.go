package usecase

import (
	"crypto/rand"
	"io"
	"strings"

	"loyalty-subscription-core/internal/domain"
)

// A character set that avoids ambiguous characters like O/0, I/1, l.
const codeChars = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// codeLength gives 12*5 = 60 bits of entropy, comfortably beyond what is
// guessable within the code's validity window.
const codeLength = 12

// generateValidationCode creates a secure, random, human-readable code.
// Stored form: 12 characters, no separators.
func generateValidationCode() (string, error) {
	buffer := make([]byte, codeLength)
	if _, err := io.ReadFull(rand.Reader, buffer); err != nil {
		return "", err
	}
	for i := 0; i < codeLength; i++ {
		buffer[i] = codeChars[int(buffer[i])%len(codeChars)]
	}
	return string(buffer), nil
}

// DisplayCode formats a stored code as XXXX-XXXX-XXXX for QR captions and
// manual entry. Presentation only; lookups use the stored form.
func DisplayCode(code string) string {
	if len(code) != codeLength {
		return code
	}
	return code[0:4] + "-" + code[4:8] + "-" + code[8:12]
}

// NormalizeCode converts operator input (typed or scanned) to the stored form:
// trimmed, uppercased, display hyphens and inner spaces stripped, fixed length.
func NormalizeCode(raw string) (string, error) {
	s := strings.ToUpper(strings.TrimSpace(raw))
	s = strings.ReplaceAll(s, "-", "")
	s = strings.ReplaceAll(s, " ", "")
	if len(s) != codeLength {
		return "", domain.ErrInvalidArgument
	}
	for i := 0; i < len(s); i++ {
		if !strings.ContainsRune(codeChars, rune(s[i])) {
			return "", domain.ErrInvalidArgument
		}
	}
	return s, nil
}

// Package isbn validates ISBN-13 barcodes before metadata lookup.
package isbn

import "fmt"

// InvalidCodeError is returned when a scanned or typed code is not an
// ISBN-13. It keeps the original code so the UI can show what was read.
type InvalidCodeError struct {
	Code string
}

func (e *InvalidCodeError) Error() string {
	return fmt.Sprintf("invalid barcode %q: expected a 13-digit code beginning with 978 or 979", e.Code)
}

// Validate checks that code is an ISBN-13: exactly 13 characters with a
// Bookland prefix (978 or 979). No checksum validation is performed; book
// barcodes that fail the checksum still resolve fine against openBD.
func Validate(code string) (string, error) {
	if len(code) != 13 {
		return "", &InvalidCodeError{Code: code}
	}
	if code[:3] != "978" && code[:3] != "979" {
		return "", &InvalidCodeError{Code: code}
	}
	return code, nil
}

package domain

import "fmt"

// monthNumbers maps canonical Indonesian month names to 1..12.
var monthNumbers = map[string]int{
	"Januari":   1,
	"Februari":  2,
	"Maret":     3,
	"April":     4,
	"Mei":       5,
	"Juni":      6,
	"Juli":      7,
	"Agustus":   8,
	"September": 9,
	"Oktober":   10,
	"November":  11,
	"Desember":  12,
}

// MonthNumber resolves a canonical month name to its 1-based number.
// Matching is exact; any other string yields ErrInvalidMonth.
func MonthNumber(name string) (int, error) {
	n, ok := monthNumbers[name]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidMonth, name)
	}
	return n, nil
}

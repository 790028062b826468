package domain

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

type MedicationName struct {
	value string
}

// NewMedicationName trims surrounding space and normalizes to NFC so that
// names captured from different input methods compare equal.
func NewMedicationName(s string) (MedicationName, error) {
	v := norm.NFC.String(strings.TrimSpace(s))
	if v == "" {
		return MedicationName{}, ErrEmptyMedicationName
	}

	return MedicationName{value: v}, nil
}

func (m MedicationName) String() string {
	return m.value
}

func (m MedicationName) IsZero() bool {
	return m.value == ""
}

package parts

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrSerialOverflow is returned by Format when a serial needs more digits
// than the catalog allows.
var ErrSerialOverflow = errors.New("serial overflows part number width")

// Part is a parsed part number.
type Part struct {
	Number string `json:"part_number"`
	Kind   Kind   `json:"part_type"`
	Serial int64  `json:"serial"`
}

// Parse normalizes id and splits it into kind and serial. The serial must be
// exactly IDDigits decimal digits.
func (c *Catalog) Parse(id string) (Part, error) {
	number := Normalize(id)
	if number == "" {
		return Part{}, fmt.Errorf("empty part number")
	}

	for _, spec := range c.prefixes {
		rest, ok := strings.CutPrefix(number, spec.Prefix)
		if !ok {
			continue
		}
		if len(rest) != c.IDDigits || !allDigits(rest) {
			continue
		}
		serial, err := strconv.ParseInt(rest, 10, 64)
		if err != nil {
			return Part{}, fmt.Errorf("part number %q: %w", id, err)
		}
		return Part{Number: number, Kind: spec.Kind, Serial: serial}, nil
	}

	return Part{}, fmt.Errorf("part number %q does not match any known prefix with %d digits", id, c.IDDigits)
}

// Valid reports whether id is a well-formed part number.
func (c *Catalog) Valid(id string) bool {
	_, err := c.Parse(id)
	return err == nil
}

// KindOf returns the kind of id, or "" when id is not a valid part number.
func (c *Catalog) KindOf(id string) Kind {
	p, err := c.Parse(id)
	if err != nil {
		return ""
	}
	return p.Kind
}

// Format builds the part number for serial.
func (c *Catalog) Format(kind Kind, serial int64) (string, error) {
	spec, ok := c.byKind[kind]
	if !ok {
		return "", fmt.Errorf("kind %s is not in the catalog", kind)
	}
	if serial < 0 {
		return "", fmt.Errorf("negative serial %d", serial)
	}
	s := fmt.Sprintf("%0*d", c.IDDigits, serial)
	if len(s) > c.IDDigits {
		return "", fmt.Errorf("serial %d exceeds %d digits: %w", serial, c.IDDigits, ErrSerialOverflow)
	}
	return spec.Prefix + s, nil
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

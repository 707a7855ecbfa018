package store

import "strings"

// LocationKey is a location's natural key. Fields compare exactly; an absent
// field matches only another absent field.
type LocationKey struct {
	Locality      *string
	StreetAddress *string
	LocationName  *string
}

// Equal compares keys field by field with null-tolerant equality.
func (k LocationKey) Equal(o LocationKey) bool {
	return sameOptional(k.Locality, o.Locality) &&
		sameOptional(k.StreetAddress, o.StreetAddress) &&
		sameOptional(k.LocationName, o.LocationName)
}

// IsZero reports whether every part of the key is absent.
func (k LocationKey) IsZero() bool {
	return k.Locality == nil && k.StreetAddress == nil && k.LocationName == nil
}

func (k LocationKey) String() string {
	return deref(k.Locality) + " / " + deref(k.StreetAddress) + " / " + deref(k.LocationName)
}

func sameOptional(a, b *string) bool {
	switch {
	case a == nil && b == nil:
		return true
	case a == nil || b == nil:
		return false
	default:
		return *a == *b
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// SplitFullName splits on whitespace; the last token is the last name and
// everything before it the first name. ok is false for fewer than two tokens.
func SplitFullName(full string) (first, last string, ok bool) {
	tokens := strings.Fields(full)
	if len(tokens) < 2 {
		return "", "", false
	}
	return strings.Join(tokens[:len(tokens)-1], " "), tokens[len(tokens)-1], true
}

package shortener

import (
	"fmt"
	"strings"
)

// ServiceID identifies one of the supported link-shortening providers.
type ServiceID uint8

const (
	Cuty ServiceID = iota + 1
	Ouo
	Shrinkme
)

// Services lists every supported provider in display order.
var Services = []ServiceID{Cuty, Ouo, Shrinkme}

// String returns the provider's display name, e.g. "cuty.io".
func (s ServiceID) String() string {
	switch s {
	case Cuty:
		return "cuty.io"
	case Ouo:
		return "ouo.io"
	case Shrinkme:
		return "shrinkme.io"
	default:
		return fmt.Sprintf("ServiceID(%d)", s)
	}
}

// Short returns the lowercase short name used in ops and metric labels.
func (s ServiceID) Short() string {
	switch s {
	case Cuty:
		return "cuty"
	case Ouo:
		return "ouo"
	case Shrinkme:
		return "shrinkme"
	default:
		return "unknown"
	}
}

// CredentialKey returns the key under which the provider's API key is stored.
func (s ServiceID) CredentialKey() string {
	switch s {
	case Cuty:
		return "CUTY_API_KEY"
	case Ouo:
		return "OUO_API_KEY"
	case Shrinkme:
		return "SHRINKME_API_KEY"
	default:
		return ""
	}
}

// Valid reports whether s is one of the supported providers.
func (s ServiceID) Valid() bool {
	return s >= Cuty && s <= Shrinkme
}

// ParseServiceID accepts either the display name ("ouo.io") or the short
// name ("ouo"), case-insensitively.
func ParseServiceID(name string) (ServiceID, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, s := range Services {
		if name == s.String() || name == s.Short() {
			return s, nil
		}
	}
	return 0, fmt.Errorf("unknown service %q (must be one of: cuty.io, ouo.io, shrinkme.io)", name)
}

// MarshalText implements encoding.TextMarshaler.
func (s ServiceID) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid service id %d", s)
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *ServiceID) UnmarshalText(text []byte) error {
	id, err := ParseServiceID(string(text))
	if err != nil {
		return err
	}
	*s = id
	return nil
}

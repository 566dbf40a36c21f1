package domain

import (
	"strings"

	"github.com/rotisserie/eris"
)

// Tristate is an explicit unknown/true/false value. Unknown is the zero value
// so an unset verdict can never be mistaken for a negative one.
type Tristate int8

const (
	Unknown Tristate = iota
	True
	False
)

// TristateOf converts a plain bool.
func TristateOf(b bool) Tristate {
	if b {
		return True
	}
	return False
}

// Known reports whether the value is True or False.
func (t Tristate) Known() bool { return t != Unknown }

// IsTrue reports whether the value is explicitly True.
func (t Tristate) IsTrue() bool { return t == True }

// IsFalse reports whether the value is explicitly False.
func (t Tristate) IsFalse() bool { return t == False }

func (t Tristate) String() string {
	switch t {
	case True:
		return "true"
	case False:
		return "false"
	default:
		return "unknown"
	}
}

// ParseTristate maps extracted text to a tristate. Korean and English yes/no
// forms are recognized; anything else is Unknown.
func ParseTristate(s string) Tristate {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "yes", "y", "1", "o", "예", "있음", "유", "해당", "적용", "일치":
		return True
	case "false", "no", "n", "0", "x", "아니오", "없음", "무", "해당없음", "미적용", "불일치":
		return False
	default:
		return Unknown
	}
}

func (t Tristate) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *Tristate) UnmarshalText(b []byte) error {
	switch string(b) {
	case "true":
		*t = True
	case "false":
		*t = False
	case "unknown", "":
		*t = Unknown
	default:
		return eris.Errorf("domain: invalid tristate %q", string(b))
	}
	return nil
}

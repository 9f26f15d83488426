package world

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidGenerator is returned for an unrecognized generator token. Import
// callers fall back to DefaultGenerator instead of failing.
var ErrInvalidGenerator = errors.New("invalid generator")

// Generator is the chunk generator a world was created with.
type Generator string

const (
	GeneratorNormal Generator = "NORMAL"
	GeneratorFlat   Generator = "FLAT"
	GeneratorVoid   Generator = "VOID"
	GeneratorCustom Generator = "CUSTOM"
)

// DefaultGenerator is used by imports when no generator was requested.
const DefaultGenerator = GeneratorVoid

// ParseGenerator resolves a user-entered token such as "flat".
func ParseGenerator(token string) (Generator, error) {
	g := Generator(strings.ToUpper(strings.TrimSpace(token)))
	switch g {
	case GeneratorNormal, GeneratorFlat, GeneratorVoid, GeneratorCustom:
		return g, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidGenerator, token)
}

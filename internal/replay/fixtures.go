package replay

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/tradebus/tradebus/internal/envelope"
)

// Fixture is one golden-event file: an envelope plus the test-only expected
// outcome (spec.md §4.4).
type Fixture struct {
	Path     string
	Expected string // "valid" or "invalid"
	Envelope *envelope.Envelope
	RawBytes []byte // envelope bytes with "expected" stripped, ready to publish.
}

// LoadFixtures enumerates dir in stable lexicographic order and parses each
// file into a Fixture.
func LoadFixtures(dir string) ([]Fixture, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("replay: read fixture dir: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	fixtures := make([]Fixture, 0, len(names))
	for _, name := range names {
		path := filepath.Join(dir, name)
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("replay: read %s: %w", path, err)
		}
		f, err := parseFixture(path, b)
		if err != nil {
			return nil, err
		}
		fixtures = append(fixtures, f)
	}
	return fixtures, nil
}

func parseFixture(path string, raw []byte) (Fixture, error) {
	var withExpected struct {
		Expected string `json:"expected"`
	}
	if err := json.Unmarshal(raw, &withExpected); err != nil {
		return Fixture{}, fmt.Errorf("replay: parse %s: %w", path, err)
	}
	if withExpected.Expected != "valid" && withExpected.Expected != "invalid" {
		return Fixture{}, fmt.Errorf("replay: %s: expected must be \"valid\" or \"invalid\", got %q", path, withExpected.Expected)
	}

	// Strip "expected" before decoding as an envelope (strict decode would
	// otherwise reject it as an unknown field).
	var generic map[string]json.RawMessage
	if err := json.Unmarshal(raw, &generic); err != nil {
		return Fixture{}, fmt.Errorf("replay: parse %s: %w", path, err)
	}
	delete(generic, "expected")
	stripped, err := json.Marshal(generic)
	if err != nil {
		return Fixture{}, fmt.Errorf("replay: re-marshal %s: %w", path, err)
	}

	// A fixture that fails to even decode is still a fixture — it is
	// classified invalid by the harness. Envelope is nil in that case.
	env, _ := envelope.Decode(stripped)
	return Fixture{
		Path:     path,
		Expected: withExpected.Expected,
		Envelope: env,
		RawBytes: stripped,
	}, nil
}

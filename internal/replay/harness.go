// Package replay implements the C4 golden-event replay harness: a
// deterministic contract-test driver over a fixture directory (spec.md
// §4.4).
package replay

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/tradebus/tradebus/internal/envelope"
	"github.com/tradebus/tradebus/internal/logger"
	"github.com/tradebus/tradebus/internal/streamlog"
)

// PublishPolicy mirrors spec.md §4.4's three publishing policies.
type PublishPolicy string

const (
	SkipInvalid    PublishPolicy = "skip_invalid"
	FailOnInvalid  PublishPolicy = "fail_on_invalid"
	IncludeInvalid PublishPolicy = "include_invalid"
)

// Summary is the harness's final report (spec.md §4.4 step 4).
type Summary struct {
	Total     int
	Valid     int
	Invalid   int
	Published int
	Skipped   int
	Failed    int
	Mismatches []Mismatch
}

// Mismatch records one fixture whose classification disagreed with its
// expected outcome.
type Mismatch struct {
	Path     string
	Expected string
	Got      string
}

// ErrAborted is returned by Run under FailOnInvalid when an invalid fixture
// is encountered.
var ErrAborted = fmt.Errorf("replay: aborted on invalid fixture (fail_on_invalid policy)")

// Harness drives fixtures through the registry and, depending on policy,
// the stream log.
type Harness struct {
	registry *envelope.Registry
	sl       streamlog.StreamLog
	logger   logger.InterfaceLogger
}

func NewHarness(registry *envelope.Registry, sl streamlog.StreamLog, log logger.InterfaceLogger) *Harness {
	return &Harness{registry: registry, sl: sl, logger: log}
}

// Run enumerates fixtureDir in stable lexicographic order, classifies each
// fixture, and applies policy. It never reorders fixtures, so two runs
// against a fresh store produce identical per-fixture classifications
// (spec.md §8.2's replay-determinism law).
func (h *Harness) Run(ctx context.Context, fixtureDir string, policy PublishPolicy) (Summary, error) {
	fixtures, err := LoadFixtures(fixtureDir)
	if err != nil {
		return Summary{}, err
	}

	var sum Summary
	sum.Total = len(fixtures)

	for _, f := range fixtures {
		classification := h.classify(f)
		if classification == "valid" {
			sum.Valid++
		} else {
			sum.Invalid++
		}
		if classification != f.Expected {
			sum.Failed++
			sum.Mismatches = append(sum.Mismatches, Mismatch{Path: f.Path, Expected: f.Expected, Got: classification})
		}

		if classification == "invalid" {
			switch policy {
			case FailOnInvalid:
				return sum, fmt.Errorf("%w: %s", ErrAborted, f.Path)
			case IncludeInvalid:
				if err := h.publish(ctx, f); err != nil {
					h.logger.Errorf("replay: publish invalid fixture %s: %v", f.Path, err)
				} else {
					sum.Published++
				}
				continue
			default: // SkipInvalid
				sum.Skipped++
				continue
			}
		}

		if err := h.publish(ctx, f); err != nil {
			h.logger.Errorf("replay: publish fixture %s: %v", f.Path, err)
			sum.Skipped++
			continue
		}
		sum.Published++
	}

	return sum, nil
}

// classify returns "valid" or "invalid" for one fixture, per spec.md §4.4
// step 2: run C1.validate.
func (h *Harness) classify(f Fixture) string {
	if f.Envelope == nil {
		return "invalid" // did not even decode.
	}
	if err := h.registry.Validate(f.Envelope); err != nil {
		return "invalid"
	}
	return "valid"
}

// publish derives the target stream from the envelope's schema field (not
// configured externally, per spec.md §4.4) and appends the fixture's raw
// bytes verbatim. A fixture that failed strict decoding still has its schema
// field read leniently; only a fixture with no string schema field at all
// cannot be published.
func (h *Harness) publish(ctx context.Context, f Fixture) error {
	schema := ""
	if f.Envelope != nil {
		schema = f.Envelope.Schema
	} else {
		var loose struct {
			Schema string `json:"schema"`
		}
		_ = json.Unmarshal(f.RawBytes, &loose)
		schema = loose.Schema
	}
	if schema == "" {
		return fmt.Errorf("replay: %s has no schema to derive a target stream from", f.Path)
	}
	_, err := h.sl.Append(ctx, schema, f.RawBytes)
	return err
}

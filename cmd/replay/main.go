// Command replay drives the C4 golden-event harness against a fixture
// directory (spec.md §6.5): replay --store-url <url> [--fixture-dir <path>]
// [--fail-on-invalid].
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/tradebus/tradebus/internal/envelope"
	"github.com/tradebus/tradebus/internal/logger"
	"github.com/tradebus/tradebus/internal/replay"
	"github.com/tradebus/tradebus/internal/streamlog"
	"github.com/tradebus/tradebus/internal/tradestate"
)

func main() {
	os.Exit(run())
}

func run() int {
	storeURL := flag.String("store-url", "", "event store URL (redis://... ; empty uses an in-memory store)")
	fixtureDir := flag.String("fixture-dir", "testdata/golden", "directory of golden-event fixtures")
	failOnInvalid := flag.Bool("fail-on-invalid", false, "abort on the first invalid fixture instead of skipping it")
	localStore := flag.Bool("local-store", false, "use an in-memory store instead of --store-url (dev convenience)")
	flag.Parse()

	log, err := logger.NewLogger(&logger.Config{Level: "info"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "replay: logger: %v\n", err)
		return 3
	}
	defer log.Sync()

	sl, err := openStore(*storeURL, *localStore)
	if err != nil {
		log.Errorf("replay: open store: %v", err)
		return 3
	}

	registry := envelope.NewRegistry()
	if err := tradestate.RegisterLifecycleSchemas(registry); err != nil {
		log.Errorf("replay: register schemas: %v", err)
		return 3
	}

	policy := replay.SkipInvalid
	if *failOnInvalid {
		policy = replay.FailOnInvalid
	}

	h := replay.NewHarness(registry, sl, log)
	sum, err := h.Run(context.Background(), *fixtureDir, policy)
	if err != nil {
		log.Errorf("replay: run: %v", err)
		return 2
	}

	log.Infof("replay: total=%d valid=%d invalid=%d published=%d skipped=%d failed=%d",
		sum.Total, sum.Valid, sum.Invalid, sum.Published, sum.Skipped, sum.Failed)
	for _, m := range sum.Mismatches {
		log.Errorf("replay: mismatch %s: expected=%s got=%s", m.Path, m.Expected, m.Got)
	}

	if len(sum.Mismatches) > 0 {
		return 2
	}
	return 0
}

func openStore(url string, local bool) (streamlog.StreamLog, error) {
	if local || url == "" {
		return streamlog.NewMemoryStore(), nil
	}
	return streamlog.Dial(url)
}

// Command redpiler-bench drives a fixed circuit fixture through N ticks
// as fast as possible and reports throughput, a smoke test for
// "unlimited RTPS" scheduler behavior.
package main

import (
	"flag"
	"log"
	"os"
	"time"

	"github.com/dustin/go-humanize"

	"redpiler.dev/redpiler/internal/catalog"
	"redpiler.dev/redpiler/internal/config"
	"redpiler.dev/redpiler/internal/redpiler"
	"redpiler.dev/redpiler/internal/worldstub"
)

func main() {
	var (
		fixturePath = flag.String("fixture", "", "path to a world fixture JSON file (required)")
		configDir   = flag.String("configs", "./configs", "catalog config directory")
		ticks       = flag.Int("ticks", 100000, "number of game ticks to drive")
		optimize    = flag.Bool("optimize", true, "compile with --optimize")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[redpiler-bench] ", log.LstdFlags|log.Lmicroseconds)

	if *fixturePath == "" {
		logger.Fatalf("missing -fixture")
	}

	cats, err := catalog.Load(*configDir)
	if err != nil {
		logger.Fatalf("load catalog: %v", err)
	}
	cfg := config.Default()

	w, err := worldstub.LoadFixture(*fixturePath)
	if err != nil {
		logger.Fatalf("load fixture: %v", err)
	}

	driver := redpiler.New(w, cats, cfg, nil, nil)
	result, err := driver.Compile(redpiler.CompileFlags{Optimize: *optimize})
	if err != nil {
		logger.Fatalf("compile: %v", err)
	}
	logger.Printf("compiled %s nodes, %s links (session %s)",
		humanize.Comma(int64(result.NodeCount)), humanize.Comma(int64(result.LinkCount)), result.SessionID)

	start := time.Now()
	overflows := 0
	for i := 0; i < *ticks; i++ {
		if driver.Tick(w) {
			overflows++
		}
	}
	elapsed := time.Since(start)
	driver.Flush(w)

	rtps := float64(*ticks) / elapsed.Seconds()
	logger.Printf("%s ticks in %s (%s ticks/sec), %d overflow reset(s)",
		humanize.Comma(int64(*ticks)), elapsed, humanize.Comma(int64(rtps)), overflows)
}

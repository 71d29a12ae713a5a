// Command redpiler loads a circuit fixture into an in-memory world, runs
// the core control surface (compile/tick/inspect/reset) in a REPL loop
// over stdin, and optionally serves a live websocket inspect stream.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"

	"redpiler.dev/redpiler/internal/auditlog"
	"redpiler.dev/redpiler/internal/backend"
	"redpiler.dev/redpiler/internal/catalog"
	"redpiler.dev/redpiler/internal/config"
	"redpiler.dev/redpiler/internal/export"
	"redpiler.dev/redpiler/internal/graph"
	"redpiler.dev/redpiler/internal/redpiler"
	"redpiler.dev/redpiler/internal/worldstub"
)

func main() {
	var (
		fixturePath = flag.String("fixture", "", "path to a world fixture JSON file (required)")
		configDir   = flag.String("configs", "./configs", "catalog config directory")
		tuningPath  = flag.String("tuning", "", "path to redpiler.yaml (default: <configs>/redpiler.yaml)")
		listen      = flag.String("listen", "", "http listen address for the live inspect stream (empty disables it)")
		auditDir    = flag.String("audit", "", "audit trail directory (default: config's audit_dir)")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[redpiler] ", log.LstdFlags|log.Lmicroseconds)
	colorize := isatty.IsTerminal(os.Stdout.Fd())

	if *fixturePath == "" {
		logger.Fatalf("missing -fixture")
	}

	cats, err := catalog.Load(*configDir)
	if err != nil {
		logger.Fatalf("load catalog: %v", err)
	}

	tp := strings.TrimSpace(*tuningPath)
	if tp == "" {
		tp = *configDir + "/redpiler.yaml"
	}
	cfg, err := config.Load(tp)
	if err != nil && !os.IsNotExist(err) {
		logger.Fatalf("load config: %v", err)
	}

	dir := strings.TrimSpace(*auditDir)
	if dir == "" {
		dir = cfg.AuditDir
	}
	audit, err := auditlog.Open(dir)
	if err != nil {
		logger.Fatalf("open audit log: %v", err)
	}
	defer audit.Close()

	var stream *export.InspectStream
	if *listen != "" {
		stream = export.NewInspectStream(logger)
		go func() {
			logger.Printf("inspect stream listening on %s", *listen)
			if err := http.ListenAndServe(*listen, stream); err != nil {
				logger.Printf("inspect stream stopped: %v", err)
			}
		}()
	}

	w, err := worldstub.LoadFixture(*fixturePath)
	if err != nil {
		logger.Fatalf("load fixture: %v", err)
	}

	driver := redpiler.New(w, cats, cfg, audit, stream)
	logger.Printf("loaded fixture %s (catalog digest %s)", *fixturePath, cats.Digest)

	repl(driver, w, logger, colorize)
}

func repl(driver *redpiler.Driver, w *worldstub.World, logger *log.Logger, colorize bool) {
	fmt.Println("redpiler REPL. Commands: compile [optimize] [io_only] [wire_dot_out] [update_after_reset] | tick [n] | inspect x y z | on_use x y z press|release|flick | reset | quit")
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "compile":
			flags := redpiler.CompileFlags{}
			for _, f := range fields[1:] {
				switch f {
				case "optimize":
					flags.Optimize = true
				case "io_only":
					flags.IOOnly = true
				case "wire_dot_out":
					flags.WireDotOut = true
				case "update_after_reset":
					flags.UpdateAfterReset = true
				}
			}
			start := time.Now()
			result, err := driver.Compile(flags)
			if err != nil {
				fmt.Printf("compile error: %s (%s)\n", err, redpiler.ClassifyError(err))
				continue
			}
			fmt.Printf("compiled %s nodes, %s links in %s (session %s)\n",
				humanize.Comma(int64(result.NodeCount)), humanize.Comma(int64(result.LinkCount)), time.Since(start), result.SessionID)

		case "tick":
			n := 1
			if len(fields) > 1 {
				if v, err := strconv.Atoi(fields[1]); err == nil {
					n = v
				}
			}
			for i := 0; i < n; i++ {
				if overflowed := driver.Tick(w); overflowed {
					fmt.Println("scheduler overflow: graph reset")
				}
			}
			driver.Flush(w)

		case "inspect":
			pos, err := parsePos(fields[1:])
			if err != nil {
				fmt.Println(err)
				continue
			}
			report, ok := driver.Inspect(pos)
			if !ok {
				fmt.Println("nothing addressable there")
				continue
			}
			printInspect(report, colorize)

		case "on_use":
			if len(fields) < 5 {
				fmt.Println("usage: on_use x y z press|release|flick")
				continue
			}
			pos, err := parsePos(fields[1:4])
			if err != nil {
				fmt.Println(err)
				continue
			}
			action, err := parseAction(fields[4])
			if err != nil {
				fmt.Println(err)
				continue
			}
			driver.OnUse(pos, action)
			driver.Flush(w)

		case "reset":
			driver.Reset(w)
			fmt.Println("reset")

		case "quit", "exit":
			return

		default:
			fmt.Printf("unknown command %q\n", fields[0])
		}
	}
}

func parsePos(fields []string) (graph.Pos, error) {
	if len(fields) < 3 {
		return graph.Pos{}, fmt.Errorf("expected x y z")
	}
	x, err := strconv.Atoi(fields[0])
	if err != nil {
		return graph.Pos{}, err
	}
	y, err := strconv.Atoi(fields[1])
	if err != nil {
		return graph.Pos{}, err
	}
	z, err := strconv.Atoi(fields[2])
	if err != nil {
		return graph.Pos{}, err
	}
	return graph.Pos{X: int32(x), Y: int32(y), Z: int32(z)}, nil
}

func parseAction(s string) (backend.Action, error) {
	switch s {
	case "press":
		return backend.ActionPress, nil
	case "release":
		return backend.ActionRelease, nil
	case "flick":
		return backend.ActionFlick, nil
	default:
		return 0, fmt.Errorf("unknown action %q", s)
	}
}

func printInspect(r backend.InspectReport, colorize bool) {
	if colorize {
		fmt.Printf("\x1b[36m#%d\x1b[0m %s output=%d pending=%v state=%+v\n", r.ID, r.Kind, r.Output, r.Pending, r.State)
		return
	}
	fmt.Printf("#%d %s output=%d pending=%v state=%+v\n", r.ID, r.Kind, r.Output, r.Pending, r.State)
}

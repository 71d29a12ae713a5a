// Package redpiler owns the compile/reset lifecycle that glues the
// front-end, pass pipeline, and Direct backend together behind the core
// control surface: compile, reset, tick, on_use, inspect. It is the only
// package that holds a live WorldView/WorldSink pair at once.
package redpiler

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"redpiler.dev/redpiler/internal/auditlog"
	"redpiler.dev/redpiler/internal/backend"
	"redpiler.dev/redpiler/internal/catalog"
	"redpiler.dev/redpiler/internal/config"
	"redpiler.dev/redpiler/internal/export"
	"redpiler.dev/redpiler/internal/frontend"
	"redpiler.dev/redpiler/internal/graph"
	"redpiler.dev/redpiler/internal/passes"
	"redpiler.dev/redpiler/internal/rerrors"
	"redpiler.dev/redpiler/internal/worldapi"
)

// CompileFlags mirrors the control surface's compile() argument per
// spec §6: which optional passes to run and where to export the result.
type CompileFlags struct {
	Optimize         bool
	IOOnly           bool
	WireDotOut       bool
	UpdateAfterReset bool
	ExportPath       string
	ExportDotPath    string
}

// CompileResult summarizes a successful compile, surfaced to callers that
// want more than a bare error (the CLI's `/redpiler compile` reply, the
// audit log entry).
type CompileResult struct {
	SessionID string
	NodeCount int
	LinkCount int
	Elapsed   time.Duration
}

// Driver owns one plot's compiled graph and backend across compile/reset
// cycles. It is not safe for concurrent use: per spec §5, a plot runs
// single-threaded, and this type is that plot thread's single owner of
// simulation state.
type Driver struct {
	view worldapi.WorldView
	cat  *catalog.Catalog
	cfg  config.Config

	audit  *auditlog.Log
	stream *export.InspectStream

	be        *backend.Backend
	sessionID string
}

// SessionID returns the id of the currently compiled graph's compile
// session, or "" if nothing is compiled.
func (d *Driver) SessionID() string { return d.sessionID }

// New constructs a driver bound to one WorldView for its whole lifetime;
// compile/reset only ever replace the compiled graph underneath it, never
// the view itself (a new plot means a new Driver).
func New(view worldapi.WorldView, cat *catalog.Catalog, cfg config.Config, audit *auditlog.Log, stream *export.InspectStream) *Driver {
	return &Driver{view: view, cat: cat, cfg: cfg, audit: audit, stream: stream}
}

// Compile runs IdentifyNodes, InputSearch, and the pass pipeline over the
// driver's WorldView, then swaps in a fresh backend for the result. A
// prior compiled graph, if any, is discarded without being reset first —
// callers that want final WorldSink writes from the outgoing graph must
// call Reset before Compile.
func (d *Driver) Compile(flags CompileFlags) (CompileResult, error) {
	start := time.Now()
	sessionID := auditlog.NewSessionID()

	g, err := frontend.IdentifyNodes(d.view, d.cat, frontend.Options{
		IncludeWire: !flags.Optimize,
		MaxNodes:    d.cfg.MaxNodes,
	})
	if err != nil {
		d.recordCompile(sessionID, 0, 0, flags, start, err)
		return CompileResult{}, err
	}

	frontend.InputSearch(g, d.view)
	passes.Run(g, passes.Options{
		Optimize:   flags.Optimize,
		IOOnly:     flags.IOOnly,
		WireDotOut: flags.WireDotOut,
	})

	if err := d.export(g, flags); err != nil {
		d.recordCompile(sessionID, g.LiveCount(), countLinks(g), flags, start, err)
		return CompileResult{}, err
	}

	d.be = backend.New(g, d.cfg.SchedulerHorizon, flags.UpdateAfterReset)
	d.sessionID = sessionID

	result := CompileResult{
		SessionID: sessionID,
		NodeCount: g.LiveCount(),
		LinkCount: countLinks(g),
		Elapsed:   time.Since(start),
	}
	d.recordCompile(sessionID, result.NodeCount, result.LinkCount, flags, start, nil)
	return result, nil
}

// Reset applies any pending outputs, writes final block states to
// WorldSink (unconditionally flushing what's dirty, and additionally
// doing a full resync when update_after_reset was set at compile time),
// and releases the compiled graph. Per spec §7 this is also what an
// automatic reset (scheduler overflow, detected world mutation) performs.
func (d *Driver) Reset(sink worldapi.WorldSink) {
	if d.be == nil {
		return
	}
	d.be.Reset(sink)
	d.be = nil
}

// Tick advances the simulation by one game tick. If the scheduler
// overflowed during this tick (a schedule() call landed beyond the ring's
// horizon), the driver performs an automatic reset and reports it by
// returning true so the caller can surface a user-visible message, per spec §7; no error
// is ever returned from tick() itself.
func (d *Driver) Tick(sink worldapi.WorldSink) (overflowed bool) {
	if d.be == nil {
		return false
	}
	d.be.Tick()
	d.publishDirty()
	if d.be.Overflowed() {
		d.be.ClearOverflow()
		d.Reset(sink)
		return true
	}
	return false
}

// publishDirty pushes one NodeEvent per currently-dirty node to the live
// inspect stream, if one is attached. It never clears the dirty set —
// that's Flush's job, on its own world_send_rate cadence.
func (d *Driver) publishDirty() {
	if d.stream == nil {
		return
	}
	now := d.be.Now()
	for _, id := range d.be.DirtyIDs() {
		report, ok := d.be.InspectByID(id)
		if !ok {
			continue
		}
		d.stream.Publish(export.NodeEvent{
			Tick:   now,
			ID:     id,
			Kind:   report.Kind.String(),
			Output: report.Output,
		})
	}
}

// OnUse routes a lever/button/pressure-plate interaction. Per spec §5
// these arrive from outside the plot thread and must be serialized
// between scheduler slots; the caller (the collaborator's event queue) is
// responsible for that serialization — Driver itself just applies one
// interaction synchronously, atomically with respect to any Tick.
func (d *Driver) OnUse(pos graph.Pos, action backend.Action) {
	if d.be == nil {
		return
	}
	d.be.OnUse(pos, action)
}

// Flush emits whatever's dirty through sink without advancing the clock,
// used by a caller driving its own world_send_rate cadence independent of
// RTPS.
func (d *Driver) Flush(sink worldapi.WorldSink) {
	if d.be == nil {
		return
	}
	d.be.Flush(sink)
}

// Inspect returns the compiled state of whatever node occupies pos.
func (d *Driver) Inspect(pos graph.Pos) (backend.InspectReport, bool) {
	if d.be == nil {
		return backend.InspectReport{}, false
	}
	return d.be.Inspect(pos)
}

// Compiled reports whether a graph is currently loaded.
func (d *Driver) Compiled() bool { return d.be != nil }

// NotifyWorldMutated tells the driver that a block inside the compiled
// region changed outside of the backend's own writes (a player mining the
// circuit, worldedit, etc). Per spec §7 this is not an error; it triggers
// an automatic reset with a user-visible message rather than letting the
// compiled graph silently drift out of sync with the world it describes.
func (d *Driver) NotifyWorldMutated(sink worldapi.WorldSink) (resetMessage string, didReset bool) {
	if d.be == nil {
		return "", false
	}
	d.Reset(sink)
	return "redpiler: world changed inside the compiled region, graph reset", true
}

func (d *Driver) export(g *graph.Graph, flags CompileFlags) error {
	if flags.ExportPath != "" {
		if err := exportTo(flags.ExportPath, g, export.WriteGraph); err != nil {
			return fmt.Errorf("redpiler: export: %w", err)
		}
	}
	if flags.ExportDotPath != "" {
		if err := exportTo(flags.ExportDotPath, g, export.WriteDot); err != nil {
			return fmt.Errorf("redpiler: export dot: %w", err)
		}
	}
	return nil
}

func (d *Driver) recordCompile(sessionID string, nodeCount, linkCount int, flags CompileFlags, start time.Time, err error) {
	if d.audit == nil {
		return
	}
	min, max := d.view.RegionBounds()
	entry := auditlog.CompileEntry{
		SessionID: sessionID,
		At:        start,
		RegionMin: [3]int32{min.X, min.Y, min.Z},
		RegionMax: [3]int32{max.X, max.Y, max.Z},
		NodeCount: nodeCount,
		LinkCount: linkCount,
		Optimize:  flags.Optimize,
		ElapsedMS: float64(time.Since(start)) / float64(time.Millisecond),
	}
	if err != nil {
		entry.Error = err.Error()
	}
	d.audit.RecordCompile(entry)
}

func countLinks(g *graph.Graph) int {
	n := 0
	for _, id := range g.NodeIDs() {
		n += len(g.Outgoing(id))
	}
	return n
}

// ClassifyError maps an internal error to the spec §7 error-kind taxonomy
// a collaborator is expected to branch on when reporting a failed compile.
func ClassifyError(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, rerrors.ErrTooLarge):
		return "TooLarge"
	case errors.Is(err, rerrors.ErrSchedulerOverflow):
		return "SchedulerOverflow"
	case errors.Is(err, rerrors.ErrInvariantViolated):
		return "InvariantViolated"
	default:
		return "CompileError"
	}
}

func exportTo(path string, g *graph.Graph, write func(w io.Writer, g *graph.Graph) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return write(f, g)
}

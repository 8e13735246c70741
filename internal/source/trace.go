package source

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/probeops/latrace/internal/engine"
	"github.com/probeops/latrace/internal/record"
)

// Trace event operations, one per handler.
const (
	opBlockIssue    = "blk_issue"
	opBlockComplete = "blk_complete"
	opSyscallEnter  = "sys_enter"
	opSyscallExit   = "sys_exit"
)

// Replayer feeds a recorded JSONL event trace through the engines.
//
// Each line is one event object:
//
//	{"op":"blk_issue","t":100,"req":4096,"major":8,"minor":32}
//	{"op":"blk_complete","t":250,"req":4096,"major":8,"minor":32}
//	{"op":"sys_enter","t":1000,"tid":7,"pid":7,"id":74,"comm":"storagenode"}
//	{"op":"sys_exit","t":2500,"tid":7,"pid":7,"ret":0,"comm":"storagenode"}
//
// The "t" field is the event's monotonic timestamp in nanoseconds.
// Events are dispatched in file order with the virtual clock set to
// each event's timestamp first, so computed latencies match the
// recording exactly. Blank lines and lines starting with # are
// skipped.
type Replayer struct {
	Clock *VirtualClock

	// Block and Syscall may each be nil when the trace only carries
	// one kind; events for a nil sink are counted as skipped.
	Block   BlockSink
	Syscall SyscallSink

	dispatched uint64
	skipped    uint64
}

// Dispatched returns how many events were fed to a sink.
func (r *Replayer) Dispatched() uint64 { return r.dispatched }

// Skipped returns how many events had no sink to go to.
func (r *Replayer) Skipped() uint64 { return r.skipped }

// Run replays the trace until EOF, context cancellation, or the
// first malformed line.
func (r *Replayer) Run(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineno := 0
	for scanner.Scan() {
		lineno++
		if err := ctx.Err(); err != nil {
			return err
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if err := r.dispatch(line); err != nil {
			return fmt.Errorf("trace line %d: %w", lineno, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading trace: %w", err)
	}
	return nil
}

func (r *Replayer) dispatch(line string) error {
	if !gjson.Valid(line) {
		return fmt.Errorf("invalid JSON")
	}
	ev := gjson.Parse(line)
	op := ev.Get("op").String()
	t := ev.Get("t")
	if op == "" || !t.Exists() {
		return fmt.Errorf("missing op or t")
	}
	r.Clock.Set(t.Int())

	switch op {
	case opBlockIssue:
		if r.Block == nil {
			r.skipped++
			return nil
		}
		r.Block.OnIssue(engine.BlockIssue{
			Req:   ev.Get("req").Uint(),
			Major: uint32(ev.Get("major").Uint()),
			Minor: uint32(ev.Get("minor").Uint()),
		})
	case opBlockComplete:
		if r.Block == nil {
			r.skipped++
			return nil
		}
		r.Block.OnComplete(engine.BlockComplete{
			Req:   ev.Get("req").Uint(),
			Major: uint32(ev.Get("major").Uint()),
			Minor: uint32(ev.Get("minor").Uint()),
		})
	case opSyscallEnter:
		if r.Syscall == nil {
			r.skipped++
			return nil
		}
		r.Syscall.OnEnter(engine.SyscallEnter{
			TID:  uint32(ev.Get("tid").Uint()),
			PID:  uint32(ev.Get("pid").Uint()),
			ID:   uint32(ev.Get("id").Uint()),
			Comm: record.MakeComm(ev.Get("comm").String()),
		})
	case opSyscallExit:
		if r.Syscall == nil {
			r.skipped++
			return nil
		}
		r.Syscall.OnExit(engine.SyscallExit{
			TID:  uint32(ev.Get("tid").Uint()),
			PID:  uint32(ev.Get("pid").Uint()),
			Ret:  ev.Get("ret").Int(),
			Comm: record.MakeComm(ev.Get("comm").String()),
		})
	default:
		return fmt.Errorf("unknown op %q", op)
	}
	r.dispatched++
	return nil
}

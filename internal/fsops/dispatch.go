// Package fsops executes catalogued filesystem operations inside a sandbox.
// Every request yields exactly one Result; handler errors of any kind are
// converted to failures at the Dispatch boundary and never escape as panics
// or session-fatal errors.
package fsops

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"fsgate/internal/catalog"
	"fsgate/internal/sandbox"
)

// Request is one decoded operation invocation.
type Request struct {
	Operation string
	Args      map[string]any
}

// Result is the single outcome of a Request: a text payload on success, a
// classified message on failure.
type Result struct {
	Payload string
	Err     *OpError
}

// Failed reports whether the result carries a failure.
func (r Result) Failed() bool {
	return r.Err != nil
}

// Message returns the caller-visible text for the result.
func (r Result) Message() string {
	if r.Err != nil {
		return r.Err.Error()
	}
	return r.Payload
}

type handler func(d *Dispatcher, args map[string]any) (string, *OpError)

// handlers maps operation names to their implementations. Built once; the
// catalogue stays the single source of truth for what exists.
var handlers = map[string]handler{
	catalog.OpReadFile:      (*Dispatcher).readFile,
	catalog.OpListDirectory: (*Dispatcher).listDirectory,
	catalog.OpWriteFile:     (*Dispatcher).writeFile,
}

// Dispatcher routes requests to operation handlers backed by the sandbox.
type Dispatcher struct {
	root sandbox.Root
}

// NewDispatcher creates a dispatcher bound to the given sandbox root.
func NewDispatcher(root sandbox.Root) *Dispatcher {
	return &Dispatcher{root: root}
}

// Root returns the sandbox root the dispatcher operates under.
func (d *Dispatcher) Root() sandbox.Root {
	return d.root
}

// Dispatch validates and executes one request. It never returns a Go error:
// all failure modes are carried in the Result so the session stays alive.
func (d *Dispatcher) Dispatch(req Request) Result {
	op, ok := catalog.Lookup(req.Operation)
	if !ok {
		return failure(opErrorf(req.Operation, CodeUnknownOperation, "no such operation"))
	}
	if err := op.CheckArgs(req.Args); err != nil {
		return failure(opErrorf(req.Operation, CodeInvalidArguments, "%v", err))
	}

	h, ok := handlers[req.Operation]
	if !ok {
		// Catalogue and handler table out of sync; treat as unknown
		// rather than crashing the session.
		return failure(opErrorf(req.Operation, CodeUnknownOperation, "no handler registered"))
	}

	payload, opErr := h(d, req.Args)
	if opErr != nil {
		return failure(opErr)
	}
	return Result{Payload: payload}
}

func failure(err *OpError) Result {
	return Result{Err: err}
}

func (d *Dispatcher) readFile(args map[string]any) (string, *OpError) {
	raw := args["path"].(string)

	resolved, err := d.resolve(catalog.OpReadFile, raw)
	if err != nil {
		return "", err
	}

	info, statErr := os.Stat(resolved)
	if statErr != nil {
		if errors.Is(statErr, os.ErrNotExist) {
			return "", opErrorf(catalog.OpReadFile, CodeNotFound, "file not found: %s", raw)
		}
		return "", opErrorf(catalog.OpReadFile, CodeNotFound, "cannot access %s: %v", raw, statErr)
	}
	if info.IsDir() {
		return "", opErrorf(catalog.OpReadFile, CodeNotAFile, "not a file: %s", raw)
	}

	data, readErr := os.ReadFile(resolved)
	if readErr != nil {
		return "", opErrorf(catalog.OpReadFile, CodeNotFound, "cannot read %s: %v", raw, readErr)
	}
	if !utf8.Valid(data) {
		return "", opErrorf(catalog.OpReadFile, CodeDecodeError, "file is not a text file: %s", raw)
	}
	return string(data), nil
}

func (d *Dispatcher) listDirectory(args map[string]any) (string, *OpError) {
	raw := args["path"].(string)

	resolved, err := d.resolve(catalog.OpListDirectory, raw)
	if err != nil {
		return "", err
	}

	info, statErr := os.Stat(resolved)
	if statErr != nil {
		if errors.Is(statErr, os.ErrNotExist) {
			return "", opErrorf(catalog.OpListDirectory, CodeNotFound, "directory not found: %s", raw)
		}
		return "", opErrorf(catalog.OpListDirectory, CodeNotFound, "cannot access %s: %v", raw, statErr)
	}
	if !info.IsDir() {
		return "", opErrorf(catalog.OpListDirectory, CodeNotADirectory, "not a directory: %s", raw)
	}

	entries, readErr := os.ReadDir(resolved)
	if readErr != nil {
		return "", opErrorf(catalog.OpListDirectory, CodeNotFound, "cannot list %s: %v", raw, readErr)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	var b strings.Builder
	fmt.Fprintf(&b, "Contents of %s:", resolved)
	for _, entry := range entries {
		kind := "FILE"
		var size int64
		if entry.IsDir() {
			kind = "DIR"
		} else if fi, err := entry.Info(); err == nil {
			size = fi.Size()
		}
		fmt.Fprintf(&b, "\n%-6s %10d bytes  %s", kind, size, entry.Name())
	}
	return b.String(), nil
}

func (d *Dispatcher) writeFile(args map[string]any) (string, *OpError) {
	raw := args["path"].(string)
	content := args["content"].(string)

	resolved, err := d.resolve(catalog.OpWriteFile, raw)
	if err != nil {
		return "", err
	}

	if mkErr := os.MkdirAll(filepath.Dir(resolved), 0755); mkErr != nil {
		return "", opErrorf(catalog.OpWriteFile, CodeNotADirectory, "cannot create parent directories for %s: %v", raw, mkErr)
	}
	if writeErr := os.WriteFile(resolved, []byte(content), 0644); writeErr != nil {
		return "", opErrorf(catalog.OpWriteFile, CodeNotAFile, "cannot write %s: %v", raw, writeErr)
	}

	return fmt.Sprintf("Successfully wrote %d characters to %s",
		utf8.RuneCountInString(content), filepath.Base(resolved)), nil
}

func (d *Dispatcher) resolve(op, raw string) (string, *OpError) {
	resolved, err := d.root.Resolve(raw)
	if err != nil {
		var accessErr *sandbox.AccessError
		if errors.As(err, &accessErr) {
			return "", opErrorf(op, CodeAccessDenied, "%s is outside the allowed directory", accessErr.Path)
		}
		return "", opErrorf(op, CodeAccessDenied, "cannot resolve %s", raw)
	}
	return resolved, nil
}

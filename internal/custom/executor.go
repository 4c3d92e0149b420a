// Package custom runs generated detectors inside a goja sandbox and manages their definitions.
package custom

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dop251/goja"

	"github.com/Yadav-Aayansh/Cyber-Attack-Detector/internal/model"
)

var (
	// ErrExecution wraps every failure of a generated detector at run time.
	ErrExecution = errors.New("custom detector execution failed")
	// ErrInvalidCode is returned for source that lacks detectCustomThreat or does not compile.
	ErrInvalidCode = errors.New("invalid detector code")
	// ErrNotFound is returned for an unknown detector id.
	ErrNotFound = errors.New("custom detector not found")
)

// FunctionName is the function every generated detector must define.
const FunctionName = "detectCustomThreat"

// DefaultTimeout bounds one detector run.
const DefaultTimeout = 5 * time.Second

var errTimeout = errors.New("timed out")

// entryFields are the keys every returned object must carry.
var entryFields = []string{
	"ip", "timestamp", "method", "path", "protocol", "status",
	"bytes", "referrer", "user_agent", "host", "server_ip",
}

// Validate checks that source declares the detector function and compiles.
func Validate(code string) error {
	_, err := compile(code)
	return err
}

func compile(code string) (*goja.Program, error) {
	if !strings.Contains(code, "function "+FunctionName) {
		return nil, fmt.Errorf("%w: missing function %s", ErrInvalidCode, FunctionName)
	}
	prog, err := goja.Compile("detector.js", code, false)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCode, err)
	}
	return prog, nil
}

// Executor runs generated detector source against entries.
// Each run gets a fresh runtime holding only the detector source and plain JSON values.
type Executor struct {
	Timeout time.Duration
}

func (x Executor) timeout() time.Duration {
	if x.Timeout > 0 {
		return x.Timeout
	}
	return DefaultTimeout
}

// Run executes cd against entries and returns the flagged entries in the order the
// function produced them.
func (x Executor) Run(ctx context.Context, cd model.CustomDetector, entries []model.LogEntry) (out []model.SuspiciousEntry, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, err = nil, fmt.Errorf("%w: %s: panic: %v", ErrExecution, cd.ID, r)
		}
	}()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	prog, err := compile(cd.Code)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrExecution, cd.ID, err)
	}

	if entries == nil {
		entries = []model.LogEntry{}
	}
	payload, err := json.Marshal(entries)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: encoding entries: %v", ErrExecution, cd.ID, err)
	}

	vm := goja.New()
	// Capture JSON before user code can replace it.
	jsonObj := vm.Get("JSON").ToObject(vm)
	parse, _ := goja.AssertFunction(jsonObj.Get("parse"))
	stringify, _ := goja.AssertFunction(jsonObj.Get("stringify"))

	timer := time.AfterFunc(x.timeout(), func() { vm.Interrupt(errTimeout) })
	defer timer.Stop()
	stop := context.AfterFunc(ctx, func() { vm.Interrupt(ctx.Err()) })
	defer stop()

	if _, err := vm.RunProgram(prog); err != nil {
		return nil, x.wrap(cd, err)
	}
	fn, ok := goja.AssertFunction(vm.Get(FunctionName))
	if !ok {
		return nil, fmt.Errorf("%w: %s: %w: %s is not a function", ErrExecution, cd.ID, ErrInvalidCode, FunctionName)
	}

	arg, err := parse(goja.Undefined(), vm.ToValue(string(payload)))
	if err != nil {
		return nil, x.wrap(cd, err)
	}
	result, err := fn(goja.Undefined(), arg)
	if err != nil {
		return nil, x.wrap(cd, err)
	}
	encoded, err := stringify(goja.Undefined(), result)
	if err != nil {
		return nil, x.wrap(cd, err)
	}
	if goja.IsUndefined(encoded) || goja.IsNull(encoded) {
		return nil, fmt.Errorf("%w: %s: result is not an array", ErrExecution, cd.ID)
	}

	out, err = decodeResult(encoded.String())
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrExecution, cd.ID, err)
	}
	return out, nil
}

func (x Executor) wrap(cd model.CustomDetector, err error) error {
	var interrupted *goja.InterruptedError
	if errors.As(err, &interrupted) {
		if cause, ok := interrupted.Value().(error); ok {
			return fmt.Errorf("%w: %s: interrupted: %w", ErrExecution, cd.ID, cause)
		}
	}
	return fmt.Errorf("%w: %s: %v", ErrExecution, cd.ID, err)
}

// decodeResult checks that the JSON result is an array of entry-shaped objects.
func decodeResult(raw string) ([]model.SuspiciousEntry, error) {
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	var items []map[string]any
	if err := dec.Decode(&items); err != nil {
		return nil, fmt.Errorf("result is not an array of objects: %v", err)
	}
	if items == nil {
		return nil, errors.New("result is not an array")
	}

	out := make([]model.SuspiciousEntry, 0, len(items))
	for i, item := range items {
		if item == nil {
			return nil, fmt.Errorf("result[%d] is not an object", i)
		}
		var values [11]string
		for j, key := range entryFields {
			v, err := scalar(item, key)
			if err != nil {
				return nil, fmt.Errorf("result[%d]: %v", i, err)
			}
			values[j] = v
		}
		reason := ""
		if r, ok := item["suspicion_reason"]; ok && r != nil {
			s, isString := r.(string)
			if !isString {
				return nil, fmt.Errorf("result[%d]: suspicion_reason is not a string", i)
			}
			reason = s
		}
		out = append(out, model.SuspiciousEntry{
			LogEntry: model.LogEntry{
				IP:        values[0],
				Timestamp: values[1],
				Method:    values[2],
				Path:      values[3],
				Protocol:  values[4],
				Status:    values[5],
				Bytes:     values[6],
				Referrer:  values[7],
				UserAgent: values[8],
				Host:      values[9],
				ServerIP:  values[10],
			},
			SuspicionReason: reason,
		})
	}
	return out, nil
}

// scalar reads a string or numeric field as text.
func scalar(item map[string]any, key string) (string, error) {
	v, ok := item[key]
	if !ok {
		return "", fmt.Errorf("missing field %q", key)
	}
	switch t := v.(type) {
	case string:
		return t, nil
	case json.Number:
		return t.String(), nil
	}
	return "", fmt.Errorf("field %q must be a string or number", key)
}

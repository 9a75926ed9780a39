// Package iojson writes the machine-readable output of --json commands.
// Documents go to one stream and failure envelopes to another so callers can
// pipe results without mixing in errors.
package iojson

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
)

// Error is the envelope written when a command fails in JSON mode.
type Error struct {
	Message string         `json:"message"`
	Data    map[string]any `json:"data,omitempty"`
}

// Writer sends JSON documents to Out and Error envelopes to Err.
type Writer struct {
	Out io.Writer
	Err io.Writer
}

// New creates a Writer.
func New(out, errOut io.Writer) Writer {
	return Writer{Out: out, Err: errOut}
}

// Encode writes v as one indented document on Out. When v cannot be encoded,
// nothing reaches Out; the failure is reported on Err and returned.
func (w Writer) Encode(v any) error {
	bits, err := marshal(v)
	if err != nil {
		_ = w.Fail("encode output", map[string]any{"json_error": err.Error()})
		return fmt.Errorf("encode output: %w", err)
	}

	_, err = w.Out.Write(bits)
	return err
}

// Fail writes an Error envelope on Err.
func (w Writer) Fail(msg string, data map[string]any) error {
	bits, err := marshal(Error{Message: msg, Data: data})
	if err != nil {
		// data held something unencodable; keep the message and say why
		bits = []byte(`{"message":` + strconv.Quote(msg) +
			`,"data":{"json_error":` + strconv.Quote(err.Error()) + "}}\n")
	}

	_, err = w.Err.Write(bits)
	return err
}

func marshal(v any) ([]byte, error) {
	bits, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(bits, '\n'), nil
}

package compiler

import (
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/lnconform/lnconform/internal/wire"
)

// CompileNamespace parses a CUE value into message type registrations on
// top of the standard peer namespace. Uses CUE SDK's Go API directly (not
// CLI subprocess).
//
// The CUE value should hold a messages struct, e.g.:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`messages: my_msg: { number: 40021, fields: ["a", "b"] }`)
//	ns, err := CompileNamespace(v)
//
// Numbers and names must not collide with the built-in peer messages.
func CompileNamespace(v cue.Value) (*wire.Namespace, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	ns := wire.Peer()

	msgsVal := v.LookupPath(cue.ParsePath("messages"))
	if !msgsVal.Exists() {
		return nil, &CompileError{
			Field:   "messages",
			Message: "messages is required",
			Pos:     v.Pos(),
		}
	}

	iter, err := msgsVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	for iter.Next() {
		name := iter.Label()
		mt, err := parseMessageType(name, iter.Value())
		if err != nil {
			return nil, err
		}
		if err := ns.Register(*mt); err != nil {
			return nil, &CompileError{
				Field:   name,
				Message: err.Error(),
				Pos:     iter.Value().Pos(),
			}
		}
	}

	return ns, nil
}

// LoadFile reads a CUE file from disk and compiles it into a namespace.
func LoadFile(path string) (*wire.Namespace, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read namespace file: %w", err)
	}

	ctx := cuecontext.New()
	v := ctx.CompileBytes(src, cue.Filename(path))
	return CompileNamespace(v)
}

// parseMessageType parses one message entry:
//
//	{ number: 40021, fields: ["field_a", "field_b"] }
//
// fields is optional; a message with no fields is legal on the wire.
func parseMessageType(name string, v cue.Value) (*wire.MessageType, error) {
	numVal := v.LookupPath(cue.ParsePath("number"))
	if !numVal.Exists() {
		return nil, &CompileError{
			Field:   name,
			Message: "number is required",
			Pos:     v.Pos(),
		}
	}
	num, err := numVal.Int64()
	if err != nil {
		return nil, formatCUEError(err)
	}
	if num < 0 || num > 65535 {
		return nil, &CompileError{
			Field:   name,
			Message: fmt.Sprintf("number %d out of uint16 range", num),
			Pos:     numVal.Pos(),
		}
	}

	mt := &wire.MessageType{Name: name, Number: uint16(num)}

	fieldsVal := v.LookupPath(cue.ParsePath("fields"))
	if fieldsVal.Exists() {
		fieldIter, err := fieldsVal.List()
		if err != nil {
			return nil, formatCUEError(err)
		}
		for fieldIter.Next() {
			f, err := fieldIter.Value().String()
			if err != nil {
				return nil, formatCUEError(err)
			}
			mt.Fields = append(mt.Fields, f)
		}
	}

	return mt, nil
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	// CUE errors may contain multiple errors
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	// Return first error with position info
	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}

package document

import (
	_ "embed"
	"fmt"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
)

//go:embed schema.cue
var schema string

// Validate checks the document against the embedded schema: every path the
// pipeline dereferences must exist with the expected shape. It does not
// contact the host.
func (d *Document) Validate() error {
	ctx := d.value.Context()

	schemaValue := ctx.CompileString(schema, cue.Filename("schema.cue"))
	if err := schemaValue.Err(); err != nil {
		return fmt.Errorf("internal error: failed to compile document schema: %w", err)
	}

	root := schemaValue.LookupPath(cue.ParsePath("#Document"))
	if err := root.Err(); err != nil {
		return fmt.Errorf("internal error: schema definition #Document not found: %w", err)
	}

	unified := root.Unify(d.value)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return formatError(err, d.source)
	}
	return nil
}

// formatError flattens CUE errors into "<source>: <path>: <message>" lines.
func formatError(err error, source string) error {
	cueErrs := errors.Errors(err)
	if len(cueErrs) == 0 {
		return fmt.Errorf("%s: %w", source, err)
	}

	lines := make([]string, 0, len(cueErrs))
	for _, e := range cueErrs {
		path := strings.Join(errors.Path(e), ".")
		format, args := e.Msg()
		msg := fmt.Sprintf(format, args...)
		if path != "" {
			lines = append(lines, path+": "+msg)
		} else {
			lines = append(lines, msg)
		}
	}

	if len(lines) == 1 {
		return fmt.Errorf("%s: %s", source, lines[0])
	}
	return fmt.Errorf("%s: validation failed:\n  %s", source, strings.Join(lines, "\n  "))
}

// Package validate confirms a Wasm binary is well-typed before this
// module's own decoder and translator ever see it, using wazero as an
// independent, spec-conformant reference implementation rather than
// hand-rolling a second validator.
package validate

import (
	"context"

	"github.com/tetratelabs/wazero"

	"github.com/wasm2kt/wasm2kt/errors"
)

// Module compiles raw against wazero's own validating compiler and
// discards the result: a successful compile is the only thing this
// package cares about, since translation itself is driven by this
// repo's own decoder, not wazero's IR.
func Module(ctx context.Context, raw []byte) error {
	rt := wazero.NewRuntime(ctx)
	defer rt.Close(ctx)

	compiled, err := rt.CompileModule(ctx, raw)
	if err != nil {
		return errors.New(errors.PhaseValidate, errors.KindInvalidData).
			Detail("module failed validation: %v", err).
			Cause(err).
			Build()
	}
	return compiled.Close(ctx)
}

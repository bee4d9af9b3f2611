// Package logx configures racebot's structured logging.
//
// This repo uses a small wrapper (logx.Logger) on top of zerolog to keep:
//   - Console output readable (short timestamp + short caller)
//   - File output JSON-structured
//
// The Service owns the sinks; Apply() swaps level/outputs at runtime.
package logx

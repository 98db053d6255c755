// Package convert turns flat survey-export tables into the hierarchical
// XML submission documents a form server accepts.
//
// # Key capabilities
//
//   - Rebuilds each record's group hierarchy from the mapping's
//     slash-delimited paths, in mapping declaration order
//   - Attaches repeat-group instances from secondary tables joined on
//     the submission identifier column, synthesizing 1-based position
//     markers where the schema expects them
//   - Appends the trailer every submission needs: the form version
//     marker, the instance identifier, and the superseded identifier
//     when resubmitting
//   - Converts whole exports concurrently with per-record error
//     isolation, so one malformed row never sinks the batch
//
// An Assembler is built once per session from the mapping, the loaded
// tables, and an immutable Config, and is safe for concurrent use.
package convert

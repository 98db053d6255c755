// Package diagnostic provides structured warnings, errors, and infos
// collected while loading mappings and converting records.
//
// Key capabilities:
//   - Per-record conversion failures with record context
//   - Mapping validation warnings (unused choice lists, duplicate paths)
//   - Batch summaries merged from parallel workers
package diagnostic

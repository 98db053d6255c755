// Package tableset models the flat survey-export input: typed cell
// values, named tables, and the main/repeat classification joined by the
// record-identifier column. Tables load from a directory of CSV files,
// one file per exported sheet.
package tableset

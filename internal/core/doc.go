// Package core loads delimited files into an in-memory Table, cleans them,
// and writes them back out.
//
// It has no knowledge of sinks, HTTP or configuration sources and can be
// used by the CLI, the web service or tests without modification.
//
// # Table
//
// A [Table] is an ordered set of named, equally long columns. Each [Column]
// has a single [Kind] (number or text) and a slice of [Cell]. A cell may be
// missing, which is distinct from 0 and from "". A Table has one owner and
// is mutated in place by the cleaning operations.
//
// # Pipeline
//
// [Clean] runs the cleaning steps in a fixed order:
//
//	drop sparse columns -> drop incomplete rows -> deduplicate rows ->
//	normalize column types -> fill missing values -> normalize column names
//
// Sparsity and completeness are evaluated before type normalization and
// filling, so columns dropped early never contribute to fill statistics.
//
//	t, err := core.Load("input.csv")
//	if err != nil {
//	    return err
//	}
//	report, err := core.Clean(ctx, t, core.DefaultOptions())
//	if err != nil {
//	    return err
//	}
//	return t.Export("output.csv")
//
// # Error Handling
//
// Load returns errors matching [ErrFileNotFound] or [ErrParse]; invalid
// options return an [*ArgumentError] matching [ErrInvalidArgument].
// [MapError] turns any of these into a [UserMessage] with a support code.
package core

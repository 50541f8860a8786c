// SPDX-License-Identifier: MPL-2.0

// Package cueutil validates CUE documents against an embedded schema and
// decodes them. The configuration loader and the train descriptor loader
// share it:
//
//	//go:embed train_schema.cue
//	var schema []byte
//
//	res, err := cueutil.ParseAndDecode[descriptor](schema, data, "#Train",
//	    cueutil.WithFilename(path))
//
// Errors carry the file name and a JSON-style path to the offending field,
// e.g. "train.cue: modules[1].version: conflicting values".
package cueutil

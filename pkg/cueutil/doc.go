// SPDX-License-Identifier: MPL-2.0

// Package cueutil provides the shared CUE decode path for scene documents and
// configuration files:
//
//  1. Compile the embedded schema
//  2. Compile user data and unify it with the schema definition
//  3. Validate, decode into a Go struct, and keep the user value for source
//     positions
//
// # Usage
//
//	//go:embed scene_schema.cue
//	var schemaBytes []byte
//
//	result, err := cueutil.ParseAndDecode[Scene](
//	    schemaBytes,
//	    data,
//	    "#Collection",
//	    cueutil.WithFilename("/main.collection"),
//	)
//	if err != nil {
//	    return nil, err // error names file, line and JSON path
//	}
//	line := result.Line(cue.Str("instances"), cue.Index(0))
package cueutil

// Copyright 2017 Santhosh Kumar Tekuri. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command validator checks a price transparency data file against a
// json-schema.
//
//	validator [flags] <schema-path> <data-path> [output-path]
//
// It prints "Input JSON is valid." and exits with 0 when the data
// conforms; otherwise it prints a failure report and exits with 1.
package main

import (
	"os"

	"github.com/CMSgov/price-transparency-guide-validator/internal/app"
)

func main() {
	os.Exit(app.Run(os.Args[1:], os.Stdout, os.Stderr))
}

// Copyright 2026 Marcelo Cantos
// SPDX-License-Identifier: Apache-2.0

package pipeline

import (
	"os"
	"testing"
)

// envHelper selects a helper process mode when the test binary is re-run
// by a test rather than by the executor.
const envHelper = "STSH_TEST_HELPER"

// helpers maps envHelper values to process bodies. Platform test files
// register theirs in init.
var helpers = map[string]func(){}

// The executor re-runs the test binary as its child trampoline.
func TestMain(m *testing.M) {
	HandleChild()
	if fn := helpers[os.Getenv(envHelper)]; fn != nil {
		fn()
		os.Exit(0)
	}
	os.Exit(m.Run())
}

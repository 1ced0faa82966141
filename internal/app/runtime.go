package app

import (
	"os"
	"sync"
	"sync/atomic"
)

const testModeEnv = "VINYLOPS_TEST_MODE"

var (
	testModeFlag atomic.Bool
	testModeOnce sync.Once
)

func detectTestMode() {
	testModeFlag.Store(os.Getenv(testModeEnv) == "1")
}

// InTestMode reports whether binaries should skip connecting to Postgres,
// Redis and Gotenberg.
func InTestMode() bool {
	testModeOnce.Do(detectTestMode)
	return testModeFlag.Load()
}

// RefreshTestMode updates the cached flag after environment changes.
func RefreshTestMode() {
	testModeOnce.Do(func() {})
	detectTestMode()
}

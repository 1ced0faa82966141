// Package guard switches binaries into test mode when imported from tests.
package guard

import (
	"os"
	"sync"
)

const testModeEnv = "VINYLOPS_TEST_MODE"

var once sync.Once

func init() {
	once.Do(func() {
		if os.Getenv(testModeEnv) == "" {
			_ = os.Setenv(testModeEnv, "1")
		}
		if os.Getenv("GOTENBERG_URL") == "" {
			_ = os.Setenv("GOTENBERG_URL", "http://127.0.0.1:0")
		}
	})
}

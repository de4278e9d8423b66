// Package guard flags the process as a test run before any package init
// that consults the test-mode switch. Blank-import it from _test files.
package guard

import (
	"os"
	"sync"
)

var once sync.Once

func init() {
	once.Do(func() {
		if os.Getenv("STORYWEAVE_TEST_MODE") == "" {
			_ = os.Setenv("STORYWEAVE_TEST_MODE", "1")
		}
	})
}

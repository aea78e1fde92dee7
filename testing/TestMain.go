package testing

import (
	"os"
	"sync"
	stdtesting "testing"
)

var once sync.Once

func ensureTestMode() {
	once.Do(func() {
		_ = os.Setenv("TXDASH_TEST_MODE", "1")
	})
}

func init() {
	ensureTestMode()
}

// TestMain forces test mode so binaries imported by tests skip runtime startup.
func TestMain(m *stdtesting.M) {
	ensureTestMode()
	os.Exit(m.Run())
}

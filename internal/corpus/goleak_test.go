package corpus

import (
	"testing"

	"go.uber.org/goleak"
)

// TestMain ensures the watcher shuts down every goroutine it starts.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("internal/poll.runtime_pollWait"),
	)
}

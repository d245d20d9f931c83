package source

import (
	"testing"

	"go.uber.org/goleak"
)

// TestMain fails the package if a fetch worker or HTTP goroutine outlives
// its test.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("internal/poll.runtime_pollWait"),
	)
}

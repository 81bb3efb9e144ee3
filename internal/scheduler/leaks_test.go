package scheduler

import (
	"testing"

	"go.uber.org/goleak"
)

// Cron loops and job goroutines must be gone once Stop returns. Keep-alive
// connections from the resty transport are not ours to close.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreCurrent(),
		goleak.IgnoreTopFunction("net/http.(*persistConn).readLoop"),
		goleak.IgnoreTopFunction("net/http.(*persistConn).writeLoop"),
		goleak.IgnoreTopFunction("internal/poll.runtime_pollWait"),
	)
}

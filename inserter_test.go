package depot

import (
	"strings"
	"testing"
)

// TestTrackCallersRecordsCallSite verifies that caller tracking records the
// user's call site, not a frame inside the package, for both the spawn and
// the overwrite path.
func TestTrackCallersRecordsCallSite(t *testing.T) {
	Config.SetTrackCallers(true)
	defer Config.SetTrackCallers(false)

	storage := Factory.NewStorage()
	posID := RegisterComponent[Position](storage)

	e, err := storage.Spawn(Position{X: 1})
	if err != nil {
		t.Fatalf("Spawn failed: %v", err)
	}
	loc, _ := storage.EntityLocation(e)
	col := storage.Table(loc.TableID).column(posID)

	caller := col.callers[loc.TableRow]
	if !strings.Contains(caller, "inserter_test.go") {
		t.Errorf("Spawn recorded caller %q, expected this test file", caller)
	}

	if err := storage.Insert(e, Position{X: 2}); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	caller = col.callers[loc.TableRow]
	if !strings.Contains(caller, "inserter_test.go") {
		t.Errorf("Insert recorded caller %q, expected this test file", caller)
	}
}

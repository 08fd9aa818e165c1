package interp

import (
	"sync"
	"testing"

	qt "github.com/frankban/quicktest"
)

// TestJobTableSlotReuse checks that a freed slot is reused before the
// table appends a new one, and that slot numbers, which are the job
// numbers handed to the user, start at 1 (spec.md §4.5, "slot reuse").
func TestJobTableSlotReuse(t *testing.T) {
	c := qt.New(t)
	jt := NewJobTable()

	j1 := jt.Add(100, "sleep 1")
	j2 := jt.Add(200, "sleep 2")
	c.Assert(j1.Slot, qt.Equals, 1)
	c.Assert(j2.Slot, qt.Equals, 2)

	jt.MarkDone(1, 0)
	jt.Free(1)

	j3 := jt.Add(300, "sleep 3")
	c.Assert(j3.Slot, qt.Equals, 1, qt.Commentf("freed slot 1 must be reused before appending"))

	list := jt.List()
	c.Assert(list, qt.HasLen, 2)
}

// TestJobTableResolveMostRecent checks Resolve(-1)-style "most recent"
// lookup (slot <= 0) returns the latest non-Empty job.
func TestJobTableResolveMostRecent(t *testing.T) {
	c := qt.New(t)
	jt := NewJobTable()
	jt.Add(100, "a")
	jt.Add(200, "b")

	j, ok := jt.Resolve(0)
	c.Assert(ok, qt.IsTrue)
	c.Assert(j.Command, qt.Equals, "b")

	j, ok = jt.Resolve(1)
	c.Assert(ok, qt.IsTrue)
	c.Assert(j.Command, qt.Equals, "a")

	_, ok = jt.Resolve(99)
	c.Assert(ok, qt.IsFalse)
}

// TestJobTableMarkDoneThenFreeConservesNoOrphans exercises testable
// property 4: for every fork initiated, the job either reaches Empty or
// is observed Done by the foreground wait loop — no slot is left
// Running forever.
func TestJobTableMarkDoneThenFreeConservesNoOrphans(t *testing.T) {
	c := qt.New(t)
	jt := NewJobTable()

	j := jt.Add(100, "sleep 1")
	c.Assert(j.State, qt.Equals, JobRunning)

	jt.MarkDone(j.Slot, 0)
	done, ok := jt.Resolve(j.Slot)
	c.Assert(ok, qt.IsTrue)
	c.Assert(done.State, qt.Equals, JobDone)
	c.Assert(done.Status, qt.Equals, 0)

	jt.Free(j.Slot)
	list := jt.List()
	c.Assert(list, qt.HasLen, 0, qt.Commentf("Free must make the slot disappear from List"))
}

// TestJobTableDisownDropsFromSighupBroadcast checks plain `disown` frees
// the slot outright, while `disown -h` keeps the job tracked but marks
// it to survive SIGHUP (spec.md, "Disown" glossary entry and the
// `fg`/`bg`/`disown` responsibilities in §4.5).
func TestJobTableDisownDropsFromSighupBroadcast(t *testing.T) {
	c := qt.New(t)
	jt := NewJobTable()

	j1 := jt.Add(100, "a")
	j2 := jt.Add(200, "b")

	jt.Disown(j1.Slot, false)
	_, ok := jt.Resolve(j1.Slot)
	c.Assert(ok, qt.IsFalse, qt.Commentf("plain disown frees the slot"))

	jt.Disown(j2.Slot, true)
	surviving, ok := jt.Resolve(j2.Slot)
	c.Assert(ok, qt.IsTrue, qt.Commentf("disown -h keeps the job tracked"))
	c.Assert(surviving.Disowned, qt.IsTrue)

	var broadcast []int
	jt.EachSurviving(func(j *BackgroundJob) { broadcast = append(broadcast, j.Slot) })
	c.Assert(broadcast, qt.HasLen, 0, qt.Commentf("disown -h job must be excluded from the SIGHUP broadcast"))
}

// TestJobTableConcurrentAddIsRaceFree exercises the table under
// concurrent Add calls from multiple goroutines, standing in for one
// background-watcher thread per pipeline (spec.md §5, "one OS thread
// per background pipeline"). Every job gets a distinct slot and the
// final count matches the number of adds.
func TestJobTableConcurrentAddIsRaceFree(t *testing.T) {
	c := qt.New(t)
	jt := NewJobTable()

	const n = 50
	var wg sync.WaitGroup
	slots := make(chan int, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(pid int) {
			defer wg.Done()
			j := jt.Add(pid, "job")
			slots <- j.Slot
		}(1000 + i)
	}
	wg.Wait()
	close(slots)

	seen := map[int]bool{}
	for s := range slots {
		c.Assert(seen[s], qt.IsFalse, qt.Commentf("slot %d assigned twice", s))
		seen[s] = true
	}
	c.Assert(jt.List(), qt.HasLen, n)
}

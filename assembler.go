package dhttrace

import (
	"slices"
	"sort"

	"github.com/google/uuid"
)

// Snapshot is the global state at one time boundary.
type Snapshot struct {
	Index    int
	Time     Timestamp
	Backloop bool

	// Ongoing holds the names of the intervals open after this boundary.
	Ongoing  []string
	Starting []string
	Ending   []string
}

// Trace is the reconstructed interval trace of one log.
type Trace struct {
	ID     uuid.UUID
	Nodes  []string
	Keys   []string
	Values []string

	Boundaries []Timestamp
	Intervals  []*Interval
	Snapshots  []Snapshot
}

// Interval returns the interval with the given name.
func (t *Trace) Interval(name string) (*Interval, bool) {
	for _, iv := range t.Intervals {
		if iv.Name() == name {
			return iv, true
		}
	}
	return nil, false
}

// Backloop returns the index of the snapshot the trace loops back to.
func (t *Trace) Backloop() int {
	return len(t.Boundaries)
}

// fact is one interval boundary crossing.
type fact struct {
	name  string
	time  Timestamp
	start bool
}

// facts flattens intervals into start and end facts sorted by time. Facts
// at equal times keep interval order.
func facts(intervals []*Interval) []fact {
	var out = make([]fact, 0, 2*len(intervals))
	for _, iv := range intervals {
		var name = iv.Name()
		out = append(out, fact{name: name, time: iv.Start, start: true})
		if !iv.Open() {
			out = append(out, fact{name: name, time: iv.End})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].time < out[j].time
	})
	return out
}

// assemble groups the facts of every interval into one snapshot per time
// boundary and appends the backloop snapshot.
func assemble(intervals []*Interval) ([]Timestamp, []Snapshot, error) {
	var (
		all        = facts(intervals)
		ongoing    = make(map[string]struct{})
		boundaries []Timestamp
		snapshots  []Snapshot
	)

	for i := 0; i < len(all); {
		var (
			now = all[i].time
			j   = i
		)
		for j < len(all) && all[j].time == now {
			j++
		}

		var snapshot = Snapshot{Index: len(snapshots), Time: now}

		for _, f := range all[i:j] {
			if !f.start {
				continue
			}
			if _, open := ongoing[f.name]; open {
				return nil, nil, consistencyError(f.name, now, ErrAlreadyOpen)
			}
			ongoing[f.name] = struct{}{}
			snapshot.Starting = append(snapshot.Starting, f.name)
		}
		for _, f := range all[i:j] {
			if f.start {
				continue
			}
			if _, open := ongoing[f.name]; !open {
				return nil, nil, consistencyError(f.name, now, ErrNotOpen)
			}
			delete(ongoing, f.name)
			snapshot.Ending = append(snapshot.Ending, f.name)
		}

		snapshot.Ongoing = sortedSet(ongoing)
		boundaries = append(boundaries, now)
		snapshots = append(snapshots, snapshot)
		i = j
	}

	if len(snapshots) > 0 {
		var last = snapshots[len(snapshots)-1]
		snapshots = append(snapshots, Snapshot{
			Index:    len(snapshots),
			Time:     last.Time,
			Backloop: true,
			Ongoing:  slices.Clone(last.Ongoing),
		})
	}

	return boundaries, snapshots, nil
}

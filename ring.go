package dhttrace

//go:generate mockgen -typed -package=dhttrace -destination=./mocks.go -source=./ring.go

import (
	"bufio"
	"fmt"
	"io"
	"slices"
	"sort"
	"strings"
)

const pointerSource = "pointers"

// RingInput is everything a ring detector may look at.
type RingInput struct {
	// Pointers is the successor-pointer log: `time, Successor, node, successor|null`.
	Pointers io.Reader
	// Limit is the time of the last logged operation; pointer lines after it are ignored.
	Limit Timestamp
	// Keys is the full key set in ring order.
	Keys []string
	// Operations snap ideal-state boundaries onto operation boundaries.
	Operations []*Operation
	// Members are the membership intervals in the order they were opened.
	Members []*Interval
	Report  *Report
}

// RingOutput holds the intervals derived from the pointer log.
type RingOutput struct {
	Ideal          []*Interval
	Responsibility []*Interval
}

// RingDetector derives ideal-state and responsibility intervals for one
// ring protocol.
type RingDetector interface {
	// Name is the configuration name of the detector.
	Name() string
	Detect(in RingInput) (RingOutput, error)
}

const chordDetectorName = "chord"

// ringDetectors maps configuration names to detector constructors.
var ringDetectors = map[string]func() RingDetector{
	chordDetectorName: func() RingDetector { return NewChordDetector() },
}

// LookupRingDetector returns the detector registered under name.
func LookupRingDetector(name string) (RingDetector, error) {
	var ctor, ok = ringDetectors[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDetector, name)
	}
	return ctor(), nil
}

// between reports whether b lies in the circular range (a, c]. A range whose
// ends coincide covers the whole ring.
func between(a, b, c string) bool {
	if a == c {
		return true
	}
	if a < c {
		return a < b && b <= c
	}
	// Wrap around past the largest identifier.
	return b > a || b <= c
}

// ChordDetector implements RingDetector for Chord-style successor rings.
type ChordDetector struct{}

// NewChordDetector creates a Chord ring detector.
func NewChordDetector() *ChordDetector {
	return &ChordDetector{}
}

func (d *ChordDetector) Name() string {
	return chordDetectorName
}

// membershipChange is a membership interval boundary.
type membershipChange struct {
	time  Timestamp
	node  string
	leave bool
}

// membershipChanges flattens membership intervals into their boundaries in
// time order. Equal times keep the order the intervals were opened in, each
// start ahead of its own end.
func membershipChanges(members []*Interval) []membershipChange {
	var changes = make([]membershipChange, 0, 2*len(members))
	for _, m := range members {
		changes = append(changes, membershipChange{time: m.Start, node: m.Node})
		if !m.Open() {
			changes = append(changes, membershipChange{time: m.End, node: m.Node, leave: true})
		}
	}
	sort.SliceStable(changes, func(i, j int) bool {
		return changes[i].time < changes[j].time
	})
	return changes
}

// operationBoundaries returns the distinct start and end times of the
// operations in increasing order.
func operationBoundaries(ops []*Operation) []Timestamp {
	var set = make(map[Timestamp]struct{}, 2*len(ops))
	for _, op := range ops {
		set[op.Time] = struct{}{}
		if op.Replied() {
			set[op.End] = struct{}{}
		}
	}
	var out = make([]Timestamp, 0, len(set))
	for t := range set {
		out = append(out, t)
	}
	slices.Sort(out)
	return out
}

// Detect replays the pointer log against the membership timeline.
func (d *ChordDetector) Detect(in RingInput) (RingOutput, error) {
	var (
		state      = newRingState(in.Keys)
		changes    = membershipChanges(in.Members)
		boundaries = operationBoundaries(in.Operations)
		next       = 0
		scanner    = bufio.NewScanner(in.Pointers)
		line       = 0
		prev       = Timestamp("")
	)

	// snap moves t onto the first operation boundary at or after it.
	var snap = func(t Timestamp) (Timestamp, bool) {
		var i = sort.Search(len(boundaries), func(i int) bool { return boundaries[i] >= t })
		if i == len(boundaries) {
			return "", false
		}
		return boundaries[i], true
	}

	for scanner.Scan() {
		line++
		var text = strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}

		var fields = splitLine(text)
		if len(fields) < 4 {
			return RingOutput{}, lineError(line, ErrMalformedLine, text)
		}
		if fields[1] != "Successor" {
			if in.Report != nil {
				in.Report.warn(pointerSource, line, ErrUnknownKind, text)
			}
			continue
		}
		if in.Report != nil {
			in.Report.PointerLines = line
		}

		var (
			time = NormalizeTimestamp(fields[0])
			node = fields[2]
			succ = fields[3]
		)
		if time < prev {
			return RingOutput{}, lineError(line, ErrUnordered, text)
		}
		prev = time

		for next < len(changes) && changes[next].time < time {
			var change = changes[next]
			next++

			if err := state.applyMembership(change); err != nil {
				return RingOutput{}, err
			}
			if state.isIdeal() != state.idealOpen() {
				var at, ok = snap(change.time)
				if !ok {
					return state.output(), nil
				}
				state.toggleIdeal(at)
				in.Report.debugRing("ideal state toggled by membership", at, state)
			}
		}

		if time > in.Limit {
			break
		}

		if succ == "null" {
			succ = ""
		}
		if in.Report != nil {
			in.Report.consume(pointerSource, text)
		}
		state.pointers[node] = succ

		state.updateResponsibility(time)

		if state.isIdeal() != state.idealOpen() {
			var at, ok = snap(time)
			if !ok {
				return state.output(), nil
			}
			state.toggleIdeal(at)
			in.Report.debugRing("ideal state toggled by pointer", at, state)
		}
	}
	if err := scanner.Err(); err != nil {
		return RingOutput{}, fmt.Errorf("failed to read pointer log: %w", err)
	}

	return state.output(), nil
}

// ringState is the replayed ring: sorted members, successor pointers and the
// intervals derived from them.
type ringState struct {
	members  []string
	pointers map[string]string // node -> successor, "" for none
	keys     []string

	ideal  *Interval
	ideals []*Interval

	owned            map[string]*Interval // node -> open responsibility
	responsibilities []*Interval
}

func newRingState(keys []string) *ringState {
	var sorted = slices.Clone(keys)
	slices.Sort(sorted)
	return &ringState{
		pointers: make(map[string]string),
		keys:     sorted,
		owned:    make(map[string]*Interval),
	}
}

func (s *ringState) output() RingOutput {
	return RingOutput{
		Ideal:          s.ideals,
		Responsibility: s.responsibilities,
	}
}

func (s *ringState) applyMembership(c membershipChange) error {
	var pos, found = slices.BinarySearch(s.members, c.node)
	if c.leave {
		if !found {
			return consistencyError("Member-"+c.node, c.time, ErrNotMember)
		}
		s.members = slices.Delete(s.members, pos, pos+1)
		return nil
	}

	if found {
		return consistencyError("Member-"+c.node, c.time, ErrAlreadyMember)
	}
	s.members = slices.Insert(s.members, pos, c.node)
	return nil
}

// isIdeal reports whether every member points at the next member in ring
// order. A sole member without a successor is ideal as well.
func (s *ringState) isIdeal() bool {
	for i, member := range s.members {
		var succ, ok = s.pointers[member]
		if !ok {
			return false
		}

		var (
			notSuccessor = succ != s.members[(i+1)%len(s.members)]
			notOnlyNode  = len(s.members) != 1 || succ != ""
		)
		if notSuccessor && notOnlyNode {
			return false
		}
	}
	return true
}

func (s *ringState) idealOpen() bool {
	return s.ideal != nil
}

func (s *ringState) toggleIdeal(t Timestamp) {
	if s.ideal != nil {
		s.ideal.close(t)
		s.ideal = nil
		return
	}

	s.ideal = &Interval{
		Subject: SubjectIdeal,
		ID:      fmt.Sprintf("%d", len(s.ideals)),
		Start:   t,
	}
	s.ideals = append(s.ideals, s.ideal)
}

// owner returns the node responsible for key under the current pointers.
// Pointers are scanned in node order and the first range holding the key
// wins, so no key is ever assigned twice.
func (s *ringState) owner(key string, nodes []string) (string, bool) {
	for _, node := range nodes {
		var succ = s.pointers[node]
		if succ == "" {
			return node, true
		}
		if between(node, key, succ) {
			return succ, true
		}
	}
	return "", false
}

// assignments recomputes the key set of every node from scratch.
func (s *ringState) assignments() map[string][]string {
	var (
		nodes    = make([]string, 0, len(s.pointers))
		assigned = make(map[string][]string)
	)
	for node := range s.pointers {
		nodes = append(nodes, node)
	}
	slices.Sort(nodes)

	for _, key := range s.keys {
		if owner, ok := s.owner(key, nodes); ok {
			assigned[owner] = append(assigned[owner], key)
		}
	}
	return assigned
}

// updateResponsibility closes and reopens the responsibility interval of
// every node whose key set changed.
func (s *ringState) updateResponsibility(t Timestamp) {
	var (
		assigned = s.assignments()
		touched  = make(map[string]struct{}, len(assigned)+len(s.owned))
	)
	for node := range assigned {
		touched[node] = struct{}{}
	}
	for node := range s.owned {
		touched[node] = struct{}{}
	}

	for _, node := range sortedSet(touched) {
		var (
			keys = assigned[node]
			open = s.owned[node]
		)
		if open != nil && slices.Equal(open.Keys, keys) {
			continue
		}

		if open != nil {
			open.close(t)
			delete(s.owned, node)
		}
		if len(keys) == 0 {
			continue
		}

		var iv = &Interval{
			Subject: SubjectResponsibility,
			ID:      fmt.Sprintf("R%d", len(s.responsibilities)),
			Start:   t,
			Node:    node,
			Keys:    keys,
		}
		s.owned[node] = iv
		s.responsibilities = append(s.responsibilities, iv)
	}
}

// String returns a visual representation of the replayed ring.
func (s *ringState) String() string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("Members: %d | Pointers: %d | Keys: %d | Ideal: %t\n",
		len(s.members), len(s.pointers), len(s.keys), s.isIdeal()))

	for _, member := range s.members {
		var succ, ok = s.pointers[member]
		switch {
		case !ok:
			succ = "?"
		case succ == "":
			succ = "null"
		}

		var keys []string
		if open := s.owned[member]; open != nil {
			keys = open.Keys
		}
		b.WriteString(fmt.Sprintf("  %-12s -> %-12s  keys: %s\n", member, succ, strings.Join(keys, ",")))
	}

	return b.String()
}

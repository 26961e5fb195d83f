package dhttrace

import "strconv"

// regimen tracks one negated liveness predicate: the interval is open
// exactly while the set of in-flight operations it counts is empty.
type regimen struct {
	subject   Subject
	inFlight  map[string]struct{}
	open      *Interval
	intervals []*Interval
}

func newRegimen(subject Subject) *regimen {
	return &regimen{
		subject:  subject,
		inFlight: make(map[string]struct{}),
	}
}

// begin registers an operation that breaks the regimen. An open interval is
// closed at prev, the time of the event before this one, so that two
// toggles at one timestamp land on that timestamp.
func (g *regimen) begin(id string, prev Timestamp) {
	g.inFlight[id] = struct{}{}
	if g.open != nil {
		g.open.close(prev)
		g.open = nil
	}
}

// settle opens a new interval at now if nothing is in flight.
func (g *regimen) settle(now Timestamp) {
	if len(g.inFlight) == 0 && g.open == nil {
		g.open = &Interval{
			Subject: g.subject,
			ID:      strconv.Itoa(len(g.intervals)),
			Start:   now,
		}
		g.intervals = append(g.intervals, g.open)
	}
}

func (g *regimen) end(id string) {
	delete(g.inFlight, id)
}

// detectRegimens derives stable intervals (no membership operation in
// flight) and read-only intervals (no write in flight) in one forward pass.
func detectRegimens(events []Event) (stable, readOnly []*Interval) {
	var (
		stableG   = newRegimen(SubjectStable)
		readOnlyG = newRegimen(SubjectReadOnly)
		prev      Timestamp
	)

	for _, ev := range events {
		var (
			now = ev.EventTime()
			id  = ev.EventID()
		)

		switch ev := ev.(type) {
		case *Operation:
			if ev.Kind.Membership() {
				stableG.begin(id, prev)
			}
			if ev.Kind.Write() {
				readOnlyG.begin(id, prev)
			}

			stableG.settle(now)
			readOnlyG.settle(now)

			// Fail has no reply, it ends where it starts.
			if ev.Kind == KindFail {
				stableG.end(id)
			}
		case *Reply:
			stableG.settle(now)
			readOnlyG.settle(now)

			if ev.Kind == KindJoin || ev.Kind == KindLeave {
				stableG.end(id)
			}
			if ev.Kind.Write() {
				readOnlyG.end(id)
			}
		}

		prev = now
	}

	return stableG.intervals, readOnlyG.intervals
}

package dhttrace

import (
	"fmt"
	"strings"
)

// Subject is what an interval asserts.
type Subject int

const (
	SubjectOperation Subject = iota + 1
	SubjectMembership
	SubjectStable
	SubjectReadOnly
	SubjectIdeal
	SubjectResponsibility
)

// Subjects lists every subject in canonical order.
var Subjects = []Subject{
	SubjectOperation,
	SubjectMembership,
	SubjectStable,
	SubjectReadOnly,
	SubjectIdeal,
	SubjectResponsibility,
}

func (s Subject) String() string {
	switch s {
	case SubjectOperation:
		return "Operation"
	case SubjectMembership:
		return "Membership"
	case SubjectStable:
		return "StableRegimen"
	case SubjectReadOnly:
		return "ReadOnlyRegimen"
	case SubjectIdeal:
		return "IdealState"
	case SubjectResponsibility:
		return "Responsibility"
	default:
		return fmt.Sprintf("Subject(%d)", int(s))
	}
}

// Interval is a span [Start, End) during which its subject holds.
// An empty End means the interval is still open.
type Interval struct {
	Subject Subject
	ID      string
	Start   Timestamp
	End     Timestamp

	Node string     // Membership, Responsibility
	Keys []string   // Responsibility, sorted
	Op   *Operation // Operation
}

// operationInterval views an operation as an interval.
func operationInterval(op *Operation) *Interval {
	return &Interval{
		Subject: SubjectOperation,
		ID:      op.ID,
		Start:   op.Time,
		End:     op.End,
		Node:    op.Node,
		Op:      op,
	}
}

// Name returns the stable identity of the interval. A start fact and its
// end fact share the same name.
func (i *Interval) Name() string {
	switch i.Subject {
	case SubjectOperation:
		return i.Op.Name()
	case SubjectMembership:
		return fmt.Sprintf("Member-%s$%s", i.Node, i.ID)
	case SubjectStable:
		return "Stable$" + i.ID
	case SubjectReadOnly:
		return "ReadOnly$" + i.ID
	case SubjectIdeal:
		return "Ideal$" + i.ID
	case SubjectResponsibility:
		return fmt.Sprintf("Responsible-%s$%s", i.Node, i.ID)
	default:
		panic(fmt.Sprintf("unknown interval subject %d", int(i.Subject)))
	}
}

// Open reports whether the interval has no end yet.
func (i *Interval) Open() bool {
	return i.End == ""
}

// close ends the interval at t.
func (i *Interval) close(t Timestamp) {
	i.End = t
	if i.Op != nil {
		i.Op.End = t
	}
}

func (i *Interval) String() string {
	var end = string(i.End)
	if i.Open() {
		end = "open"
	}
	if len(i.Keys) > 0 {
		return fmt.Sprintf("%s [%s, %s) keys=%s", i.Name(), i.Start, end, strings.Join(i.Keys, ","))
	}
	return fmt.Sprintf("%s [%s, %s)", i.Name(), i.Start, end)
}

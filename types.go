package dhttrace

import "fmt"

const (
	// NoValue stands in for a value that a reply did not carry.
	NoValue = "NO_VALUE"
	// NoNode stands in for a replier or responsible node that a reply did not carry.
	NoNode = "NO_NODE"
)

// Timestamp is a normalised log timestamp. Normalised timestamps compare
// chronologically under plain string comparison.
type Timestamp string

// Kind is the kind of an operation in the operation log.
type Kind int

const (
	KindStore Kind = iota + 1
	KindRemove
	KindLookup
	KindFindNode
	KindJoin
	KindLeave
	KindFail
)

var kindNames = map[Kind]string{
	KindStore:    "Store",
	KindRemove:   "Remove",
	KindLookup:   "Lookup",
	KindFindNode: "FindNode",
	KindJoin:     "Join",
	KindLeave:    "Leave",
	KindFail:     "Fail",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// parseKind maps a log kind column to a Kind.
func parseKind(s string) (Kind, bool) {
	for kind, name := range kindNames {
		if name == s {
			return kind, true
		}
	}
	return 0, false
}

// Functional reports whether the kind is a key-addressed operation.
func (k Kind) Functional() bool {
	switch k {
	case KindStore, KindRemove, KindLookup, KindFindNode:
		return true
	default:
		return false
	}
}

// Membership reports whether the kind changes ring membership.
func (k Kind) Membership() bool {
	switch k {
	case KindJoin, KindLeave, KindFail:
		return true
	default:
		return false
	}
}

// Write reports whether the kind mutates stored data.
func (k Kind) Write() bool {
	return k == KindStore || k == KindRemove
}

// Event is one line of the operation log that survived parsing.
// The set of implementations is closed: *Operation and *Reply.
type Event interface {
	EventTime() Timestamp
	EventID() string
	isEvent()
}

// Operation is an operation from its request until its reply.
type Operation struct {
	Kind Kind
	ID   string
	Tag  int // per-kind sequence number, used in interval names
	Node string
	Time Timestamp
	End  Timestamp // empty until the reply is seen

	Key         string
	Value       string
	Responsible string
	Replier     string
}

func (o *Operation) EventTime() Timestamp { return o.Time }
func (o *Operation) EventID() string      { return o.ID }
func (*Operation) isEvent()               {}

// Name returns the interval identity of the operation, e.g. Store$3.
func (o *Operation) Name() string {
	return fmt.Sprintf("%s$%d", o.Kind, o.Tag)
}

// Replied reports whether the operation has been closed by a reply.
func (o *Operation) Replied() bool {
	return o.End != ""
}

// Reply is the reply to an operation, matched to it by ID.
type Reply struct {
	Kind    Kind // kind of the replied operation
	ID      string
	Tag     int
	Replier string
	Time    Timestamp
}

func (r *Reply) EventTime() Timestamp { return r.Time }
func (r *Reply) EventID() string      { return r.ID }
func (*Reply) isEvent()               {}

// Name returns the point-fact name of the reply, e.g. ReplyStore$3.
func (r *Reply) Name() string {
	return fmt.Sprintf("Reply%s$%d", r.Kind, r.Tag)
}

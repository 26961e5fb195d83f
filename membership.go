package dhttrace

import (
	"fmt"
	"log/slog"
)

// membership derives per-node membership intervals from Join replies,
// Leave replies and Fail events.
type membership struct {
	log       *Log
	logger    *slog.Logger
	current   map[string]*Interval
	intervals []*Interval
}

// newMembership creates a membership detector over a decoded log.
func newMembership(log *Log, logger *slog.Logger) *membership {
	return &membership{
		log:     log,
		logger:  logger,
		current: make(map[string]*Interval),
	}
}

// Members returns the nodes that are currently members.
func (m *membership) Members() []string {
	var set = make(map[string]struct{}, len(m.current))
	for node := range m.current {
		set[node] = struct{}{}
	}
	return sortedSet(set)
}

// Detect runs the detector over every event and returns the membership
// intervals in the order they were opened.
func (m *membership) Detect(seeds []string) ([]*Interval, error) {
	if len(m.log.Events) == 0 {
		return nil, nil
	}

	var first = m.log.Events[0].EventTime()
	for _, node := range initialMembers(m.log, seeds) {
		if err := m.join(node, first); err != nil {
			return nil, fmt.Errorf("failed to seed membership: %w", err)
		}
		m.logger.Debug("seeded member", "node", node, "time", first)
	}

	for _, ev := range m.log.Events {
		if err := m.apply(ev); err != nil {
			return nil, err
		}
	}

	return m.intervals, nil
}

func (m *membership) apply(ev Event) error {
	switch ev := ev.(type) {
	case *Operation:
		if ev.Kind == KindFail {
			return m.leave(ev.Node, ev.Time)
		}
	case *Reply:
		var op, ok = m.log.Operation(ev.ID)
		if !ok {
			return nil
		}
		switch ev.Kind {
		case KindJoin:
			return m.join(op.Node, ev.Time)
		case KindLeave:
			return m.leave(op.Node, ev.Time)
		case KindStore, KindRemove, KindLookup, KindFindNode, KindFail:
		}
	}
	return nil
}

// join opens a membership interval for node at t.
func (m *membership) join(node string, t Timestamp) error {
	if open, exists := m.current[node]; exists {
		return consistencyError(open.Name(), t, ErrAlreadyMember)
	}

	var member = &Interval{
		Subject: SubjectMembership,
		ID:      fmt.Sprintf("M%d", len(m.intervals)),
		Start:   t,
		Node:    node,
	}
	m.current[node] = member
	m.intervals = append(m.intervals, member)
	return nil
}

// leave closes the open membership interval of node at t.
func (m *membership) leave(node string, t Timestamp) error {
	var member, exists = m.current[node]
	if !exists {
		return consistencyError("Member-"+node, t, ErrNotMember)
	}

	member.close(t)
	delete(m.current, node)
	return nil
}

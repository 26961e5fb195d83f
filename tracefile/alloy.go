package tracefile

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"slices"

	dhttrace "go-dhttrace"
)

// Output formats accepted by Write.
const (
	FormatJSON  = "json"
	FormatAlloy = "alloy"
)

// ErrUnknownFormat is returned by Write for an unsupported format.
var ErrUnknownFormat = errors.New("unknown trace format")

const alloyBuildDate = "2021-11-03T15:25:43.736Z"

type alloyDocument struct {
	XMLName   xml.Name        `xml:"alloy"`
	BuildDate string          `xml:"builddate,attr"`
	Instances []alloyInstance `xml:"instance"`
}

type alloyInstance struct {
	Bitwidth    int            `xml:"bitwidth,attr"`
	MaxSeq      int            `xml:"maxseq,attr"`
	MinTrace    int            `xml:"mintrace,attr"`
	MaxTrace    int            `xml:"maxtrace,attr"`
	Command     string         `xml:"command,attr"`
	Filename    string         `xml:"filename,attr"`
	TraceLength int            `xml:"tracelength,attr"`
	Backloop    int            `xml:"backloop,attr"`
	Elements    []alloyElement `xml:"sig"`
}

// alloyElement is a sig or a field; XMLName picks which.
type alloyElement struct {
	XMLName  xml.Name
	Label    string       `xml:"label,attr"`
	ID       string       `xml:"ID,attr,omitempty"`
	ParentID string       `xml:"parentID,attr,omitempty"`
	Abstract string       `xml:"abstract,attr,omitempty"`
	Builtin  string       `xml:"builtin,attr,omitempty"`
	Var      string       `xml:"var,attr,omitempty"`
	Atoms    []alloyAtom  `xml:"atom"`
	Tuples   []alloyTuple `xml:"tuple"`
	Types    *alloyTypes  `xml:"types"`
	Type     *alloyType   `xml:"type"`
}

type alloyAtom struct {
	Label string `xml:"label,attr"`
}

type alloyTuple struct {
	Atoms []alloyAtom `xml:"atom"`
}

type alloyTypes struct {
	Types []alloyType `xml:"type"`
}

type alloyType struct {
	ID string `xml:"ID,attr"`
}

func sig(label, id, parent string, atoms ...string) *alloyElement {
	var e = &alloyElement{XMLName: xml.Name{Local: "sig"}, Label: label, ID: id, ParentID: parent}
	for _, a := range atoms {
		e.Atoms = append(e.Atoms, alloyAtom{Label: a})
	}
	return e
}

func field(label, id, parent, from, to string) *alloyElement {
	return &alloyElement{
		XMLName:  xml.Name{Local: "field"},
		Label:    label,
		ID:       id,
		ParentID: parent,
		Types:    &alloyTypes{Types: []alloyType{{ID: from}, {ID: to}}},
	}
}

func (e *alloyElement) atom(label string) {
	e.Atoms = append(e.Atoms, alloyAtom{Label: label})
}

func (e *alloyElement) tuple(a, b string) {
	e.Tuples = append(e.Tuples, alloyTuple{Atoms: []alloyAtom{{Label: a}, {Label: b}}})
}

// alloyTemplate holds the elements shared by every instance of a trace.
type alloyTemplate struct {
	elements []alloyElement
}

// newAlloyTemplate lays out the signatures and fields of the DHT model and
// fills in the atoms and tuples of every interval.
func newAlloyTemplate(trace *dhttrace.Trace) *alloyTemplate {
	var (
		node  = sig("this/Node", "4", "5", nodeAtoms(trace)...)
		key   = sig("this/Key", "5", "2", trace.Keys...)
		value = sig("this/Value", "6", "2")

		prop        = sig("ATL/Proposition", "8", "2")
		boundary    = sig("ATL/Boundary", "9", "2")
		member      = sig("this/Member", "10", "11")
		memberNode  = field("node", "12", "10", "10", "4")
		responsible = sig("this/Responsible", "13", "11")
		respNode    = field("node", "14", "13", "13", "4")
		respKey     = field("key", "15", "13", "13", "5")
		store       = sig("this/Store", "16", "17")
		storeValue  = field("value", "18", "16", "16", "6")
		lookup      = sig("this/Lookup", "19", "17")
		lookupValue = field("value", "20", "19", "19", "6")
		findNode    = sig("this/FindNode", "21", "17")
		findResp    = field("responsible", "22", "21", "21", "4")
		functional  = sig("this/FunctionalOperation", "17", "11")
		opNode      = field("node", "23", "17", "17", "4")
		opReplier   = field("replier", "24", "17", "17", "4")
		opKey       = field("key", "25", "17", "17", "5")
		join        = sig("this/Join", "26", "27")
		leave       = sig("this/Leave", "28", "27")
		fail        = sig("this/Fail", "29", "27")
		membership  = sig("this/MembershipOperation", "27", "11")
		memberOp    = field("node", "30", "27", "27", "4")
		ideal       = sig("this/IdealState", "31", "11")
		readOnly    = sig("this/ReadOnlyRegimen", "32", "11")
		stable      = sig("this/StableRegimen", "33", "11")
		interval    = sig("ATL/Interval", "11", "2")
		start       = field("start", "35", "11", "11", "9")
		end         = field("end", "36", "11", "11", "9")
	)

	node.atom(dhttrace.NoNode)
	for _, v := range trace.Values {
		if v != dhttrace.NoValue {
			value.atom(v)
		}
	}
	value.atom(dhttrace.NoValue)
	for _, b := range trace.Boundaries {
		boundary.atom(string(b))
	}
	prop.Abstract = "yes"
	functional.Abstract = "yes"
	membership.Abstract = "yes"
	interval.Abstract = "yes"

	for _, iv := range trace.Intervals {
		var name = iv.Name()

		start.tuple(name, string(iv.Start))
		if !iv.Open() {
			end.tuple(name, string(iv.End))
		}

		switch iv.Subject {
		case dhttrace.SubjectMembership:
			member.atom(name)
			memberNode.tuple(name, iv.Node)
		case dhttrace.SubjectResponsibility:
			responsible.atom(name)
			respNode.tuple(name, iv.Node)
			for _, k := range iv.Keys {
				respKey.tuple(name, k)
			}
		case dhttrace.SubjectIdeal:
			ideal.atom(name)
		case dhttrace.SubjectStable:
			stable.atom(name)
		case dhttrace.SubjectReadOnly:
			readOnly.atom(name)
		case dhttrace.SubjectOperation:
			var op = iv.Op
			if op.Kind.Functional() {
				opNode.tuple(name, op.Node)
				opKey.tuple(name, op.Key)
				opReplier.tuple(name, op.Replier)
			} else {
				memberOp.tuple(name, op.Node)
			}

			switch op.Kind {
			case dhttrace.KindStore, dhttrace.KindRemove:
				store.atom(name)
				storeValue.tuple(name, op.Value)
			case dhttrace.KindLookup:
				lookup.atom(name)
				lookupValue.tuple(name, op.Value)
			case dhttrace.KindFindNode:
				findNode.atom(name)
				findResp.tuple(name, op.Responsible)
			case dhttrace.KindJoin:
				join.atom(name)
			case dhttrace.KindLeave:
				leave.atom(name)
			case dhttrace.KindFail:
				fail.atom(name)
			}
		}
	}

	var univ = sig("univ", "2", "")
	univ.Builtin = "yes"
	univ.Var = "yes"

	var ordered = []*alloyElement{
		node, key, value,
		sig("ATL/P", "7", "8"), prop, boundary,
		member, memberNode,
		responsible, respNode, respKey,
		store, storeValue, lookup, lookupValue, findNode, findResp,
		functional, opNode, opReplier, opKey,
		join, leave, fail, membership, memberOp,
		ideal, readOnly, stable,
		sig("ATL/T", "34", "11"), interval, start, end,
		univ,
	}

	var t = &alloyTemplate{elements: make([]alloyElement, len(ordered))}
	for i, e := range ordered {
		t.elements[i] = *e
	}
	return t
}

// nodeAtoms returns the sorted union of the trace nodes and every node an
// interval names, without the NoNode sentinel.
func nodeAtoms(trace *dhttrace.Trace) []string {
	var nodes = slices.Clone(trace.Nodes)
	for _, iv := range trace.Intervals {
		switch {
		case iv.Op != nil:
			nodes = append(nodes, iv.Op.Node, iv.Op.Replier, iv.Op.Responsible)
		case iv.Node != "":
			nodes = append(nodes, iv.Node)
		}
	}
	nodes = slices.DeleteFunc(nodes, func(n string) bool {
		return n == "" || n == dhttrace.NoNode
	})
	slices.Sort(nodes)
	return slices.Compact(nodes)
}

// varSig creates a per-instance variable signature.
func varSig(label, id, typ string, atoms ...string) alloyElement {
	var e = sig(label, id, "", atoms...)
	e.Var = "yes"
	e.Type = &alloyType{ID: typ}
	return *e
}

// instance renders one snapshot on top of the shared template.
func (t *alloyTemplate) instance(trace *dhttrace.Trace, snap dhttrace.Snapshot, model string) alloyInstance {
	var length = len(trace.Boundaries) + 1

	var happens []string
	if !snap.Backloop {
		happens = []string{string(snap.Time)}
	}

	var elements = slices.Clip(t.elements)
	elements = append(elements,
		varSig("ATL/Active", "37", "8"),
		varSig("ATL/Happens", "38", "9", happens...),
		varSig("ATL/Ongoing", "39", "11", snap.Ongoing...),
	)

	return alloyInstance{
		Bitwidth:    4,
		MaxSeq:      2,
		MinTrace:    1,
		MaxTrace:    length,
		Command:     "Run run$1 for 10",
		Filename:    model,
		TraceLength: length,
		Backloop:    trace.Backloop(),
		Elements:    elements,
	}
}

// EncodeAlloy writes the trace as an Alloy instance document, one instance
// per snapshot. model is recorded as the instance filename.
func EncodeAlloy(w io.Writer, trace *dhttrace.Trace, model string) error {
	var (
		template = newAlloyTemplate(trace)
		doc      = alloyDocument{BuildDate: alloyBuildDate}
	)
	for _, snap := range trace.Snapshots {
		doc.Instances = append(doc.Instances, template.instance(trace, snap, model))
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return fmt.Errorf("write xml header: %w", err)
	}
	var enc = xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode alloy instance: %w", err)
	}
	return enc.Close()
}

// WriteAlloy writes the Alloy instance document to path atomically.
func WriteAlloy(path string, trace *dhttrace.Trace, model string) error {
	var buf bytes.Buffer
	if err := EncodeAlloy(&buf, trace, model); err != nil {
		return err
	}
	return writeAtomic(path, &buf)
}

// Write writes the trace in the named format: "json" or "alloy".
func Write(path, format string, trace *dhttrace.Trace, model string) error {
	switch format {
	case FormatJSON:
		return WriteJSON(path, trace)
	case FormatAlloy:
		return WriteAlloy(path, trace, model)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

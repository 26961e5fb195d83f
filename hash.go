package dhttrace

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/zeebo/blake3"
)

// traceNamespace scopes trace ids derived from input digests.
var traceNamespace = uuid.MustParse("6f1d3a52-4c1e-5b7a-9d0e-2a8c4b1f7e33")

// inputDigest fingerprints what a run reconstructs from: the options that
// shape the trace and every log line the passes consume.
type inputDigest struct {
	hasher *blake3.Hasher
}

func newInputDigest() *inputDigest {
	return &inputDigest{hasher: blake3.New()}
}

// field writes one length-prefixed entry, so adjacent entries cannot run
// into each other.
func (d *inputDigest) field(name, value string) {
	_, _ = fmt.Fprintf(d.hasher, "%s:%d:%s\n", name, len(value), value)
}

// line records a consumed line of the named source.
func (d *inputDigest) line(source, text string) {
	d.field(source, text)
}

// options records the settings that change the reconstructed trace.
func (d *inputDigest) options(o options) {
	d.field("max-lines", strconv.Itoa(o.maxLines))
	d.field("seeds", strings.Join(o.seedMembers, ","))
	d.field("detector", o.ringDetector.Name())
}

// traceID derives a deterministic trace id: equal inputs give equal ids.
func (d *inputDigest) traceID() uuid.UUID {
	return uuid.NewSHA1(traceNamespace, d.hasher.Sum(nil))
}

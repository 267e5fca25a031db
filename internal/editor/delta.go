package editor

import (
	"crypto/md5"
	"crypto/sha1"
	"hash"

	"github.com/tonimelisma/svngo/internal/svnerr"
)

// OpKind discriminates a Window's instruction list entries (spec.md §4.1
// "Text deltas"): literal bytes, a copy from the source text, or a copy
// from the target text built so far (self-referential copies let a
// window describe runs without repeating bytes).
type OpKind int

const (
	OpLiteral OpKind = iota
	OpCopyFromSource
	OpCopyFromTarget
)

// Op is one instruction within a Window.
type Op struct {
	Kind OpKind
	// Offset/Length address into the source (OpCopyFromSource) or the
	// target built so far (OpCopyFromTarget). Unused for OpLiteral.
	Offset int64
	Length int64
	// Data carries the literal bytes for OpLiteral.
	Data []byte
}

// Window is one delta window in an apply_textdelta stream. A nil *Window
// passed to a WindowHandler is the stream terminator.
type Window struct {
	// SourceOffset/SourceLength address the region of the base text this
	// window's copy-from-source ops may reference.
	SourceOffset int64
	SourceLength int64
	// TargetLength is the number of bytes this window contributes to the
	// reconstructed target text.
	TargetLength int64
	Ops          []Op
}

// Apply reconstructs this window's contribution to the target text given
// the base text (source) and the target bytes produced by prior windows
// in the same stream (targetSoFar). It returns the newly produced bytes,
// which the caller appends to targetSoFar before the next window.
func (w *Window) Apply(source, targetSoFar []byte) ([]byte, error) {
	out := make([]byte, 0, w.TargetLength)

	for _, op := range w.Ops {
		switch op.Kind {
		case OpLiteral:
			out = append(out, op.Data...)

		case OpCopyFromSource:
			end := op.Offset + op.Length
			if op.Offset < 0 || end > int64(len(source)) {
				return nil, svnerr.New(svnerr.KindInvariant,
					"text-delta op reads source [%d:%d) beyond length %d", op.Offset, end, len(source))
			}
			out = append(out, source[op.Offset:end]...)

		case OpCopyFromTarget:
			// Target copies may legitimately overlap bytes this same
			// window has already produced (run-length style encoding),
			// so copy byte by byte from the concatenation of targetSoFar
			// and out as it grows.
			end := op.Offset + op.Length
			prior := int64(len(targetSoFar))
			if op.Offset < 0 || op.Length < 0 || (op.Length > 0 && op.Offset >= prior+int64(len(out))) {
				return nil, svnerr.New(svnerr.KindInvariant,
					"text-delta op reads target [%d:%d) beyond length %d", op.Offset, end, prior+int64(len(out)))
			}
			for i := op.Offset; i < end; i++ {
				if i < prior {
					out = append(out, targetSoFar[i])
				} else {
					out = append(out, out[i-prior])
				}
			}

		default:
			return nil, svnerr.New(svnerr.KindInvariant, "unknown text-delta op kind %d", op.Kind)
		}
	}

	if int64(len(out)) != w.TargetLength {
		return nil, svnerr.New(svnerr.KindInvariant,
			"text-delta window produced %d bytes, declared TargetLength %d", len(out), w.TargetLength)
	}

	return out, nil
}

// newHash builds the hash.Hash for a Checksum's algorithm. Only md5 and
// sha1 are recognized, matching what the wire protocol actually sends on
// apply_textdelta/close_file; an unrecognized algorithm is a protocol
// error, not a silent pass.
func newHash(algo string) (hash.Hash, error) {
	switch algo {
	case "md5":
		return md5.New(), nil
	case "sha1":
		return sha1.New(), nil
	default:
		return nil, svnerr.New(svnerr.KindUnknownEOL, "unrecognized checksum algorithm %q", algo)
	}
}

// VerifyChecksum hashes data with sum's algorithm and compares against
// sum.Sum. A non-Present Checksum always verifies (spec.md §4.1: the
// checksum is optional, present or absent independently on each side).
func VerifyChecksum(sum Checksum, data []byte) error {
	if !sum.Present() {
		return nil
	}

	h, err := newHash(sum.Algo)
	if err != nil {
		return err
	}

	h.Write(data)
	got := h.Sum(nil)

	if len(got) != len(sum.Sum) {
		return svnerr.New(svnerr.KindInvariant, "checksum length mismatch: got %d bytes, want %d", len(got), len(sum.Sum))
	}

	for i := range got {
		if got[i] != sum.Sum[i] {
			return svnerr.New(svnerr.KindInvariant, "%s checksum mismatch", sum.Algo)
		}
	}

	return nil
}

package rasession

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"context"

	"github.com/tonimelisma/svngo/internal/editor"
	"github.com/tonimelisma/svngo/internal/svnerr"
)

// editWire is one line of the streamed edit-event protocol do_update/
// do_switch/do_diff/do_status decode (spec.md §6: "caller supplies an
// editor, server drives events"). Token fields are the server's own
// integer token IDs; editEventDecoder maps them onto the Token values the
// local Editor implementation returns from its Open/Add calls.
type editWire struct {
	Op string `json:"op"`

	Name        string `json:"name,omitempty"`
	BaseRev     int64  `json:"base_rev,omitempty"`
	Parent      int64  `json:"parent,omitempty"`
	Token       int64  `json:"token,omitempty"`
	CopyFrom    string `json:"copy_from,omitempty"`
	CopyFromRev int64  `json:"copy_from_rev,omitempty"`

	PropName    string `json:"prop_name,omitempty"`
	PropSet     bool   `json:"prop_set,omitempty"`
	PropValueB  string `json:"prop_value,omitempty"` // base64

	ChecksumAlgo string `json:"checksum_algo,omitempty"`
	ChecksumB    string `json:"checksum,omitempty"` // base64

	SourceOffset int64        `json:"source_offset,omitempty"`
	SourceLength int64        `json:"source_length,omitempty"`
	TargetLength int64        `json:"target_length,omitempty"`
	Ops          []editOpWire `json:"ops,omitempty"`
}

type editOpWire struct {
	Kind   string `json:"kind"` // "literal" | "copy_source" | "copy_target"
	Offset int64  `json:"offset,omitempty"`
	Length int64  `json:"length,omitempty"`
	DataB  string `json:"data,omitempty"` // base64, for "literal"
}

func decodePropValue(w editWire) (editor.PropValue, error) {
	if !w.PropSet {
		return editor.Deleted, nil
	}
	raw, err := base64.StdEncoding.DecodeString(w.PropValueB)
	if err != nil {
		return editor.PropValue{}, fmt.Errorf("rasession: decode prop value: %w", err)
	}
	return editor.PropSet(raw), nil
}

func decodeChecksum(algo, sumB string) (editor.Checksum, error) {
	if algo == "" {
		return editor.Checksum{}, nil
	}
	raw, err := base64.StdEncoding.DecodeString(sumB)
	if err != nil {
		return editor.Checksum{}, fmt.Errorf("rasession: decode checksum: %w", err)
	}
	return editor.Checksum{Algo: algo, Sum: raw}, nil
}

func decodeWindow(w editWire) (*editor.Window, error) {
	ops := make([]editor.Op, len(w.Ops))
	for i, o := range w.Ops {
		op := editor.Op{Offset: o.Offset, Length: o.Length}
		switch o.Kind {
		case "literal":
			raw, err := base64.StdEncoding.DecodeString(o.DataB)
			if err != nil {
				return nil, fmt.Errorf("rasession: decode window literal: %w", err)
			}
			op.Kind = editor.OpLiteral
			op.Data = raw
		case "copy_source":
			op.Kind = editor.OpCopyFromSource
		case "copy_target":
			op.Kind = editor.OpCopyFromTarget
		default:
			return nil, svnerr.New(svnerr.KindInvariant, "replay: unknown window op kind %q", o.Kind)
		}
		ops[i] = op
	}

	return &editor.Window{
		SourceOffset: w.SourceOffset,
		SourceLength: w.SourceLength,
		TargetLength: w.TargetLength,
		Ops:          ops,
	}, nil
}

// replayEdit decodes a streamed sequence of editWire events from body and
// drives them into ed, enforcing the same token-stack discipline any
// other producer must (spec.md §3.4). It is shared by DoUpdate, DoSwitch,
// DoDiff, and DoStatus: all four differ only in the request that produces
// the stream, never in how the stream is consumed.
func replayEdit(ctx context.Context, body io.Reader, ed editor.Editor) (err error) {
	tracked := editor.NewTokenTracker(ed)
	tokens := make(map[int64]editor.Token)
	var windowHandler editor.WindowHandler
	var windowFileWire int64

	defer func() {
		if err != nil {
			_ = tracked.AbortEdit(ctx)
		}
	}()

	dec := json.NewDecoder(body)
	for dec.More() {
		var w editWire
		if decErr := dec.Decode(&w); decErr != nil {
			return fmt.Errorf("rasession: decode edit event: %w", decErr)
		}

		switch w.Op {
		case "open_root":
			tok, e := tracked.OpenRoot(ctx, w.BaseRev)
			if e != nil {
				return e
			}
			tokens[0] = tok

		case "delete_entry":
			parent, ok := tokens[w.Parent]
			if !ok {
				return svnerr.New(svnerr.KindInvariant, "replay: delete_entry references unknown parent token %d", w.Parent)
			}
			if e := tracked.DeleteEntry(ctx, w.Name, w.BaseRev, parent); e != nil {
				return e
			}

		case "add_directory":
			parent, ok := tokens[w.Parent]
			if !ok {
				return svnerr.New(svnerr.KindInvariant, "replay: add_directory references unknown parent token %d", w.Parent)
			}
			tok, e := tracked.AddDirectory(ctx, w.Name, parent, w.CopyFrom, w.CopyFromRev)
			if e != nil {
				return e
			}
			tokens[w.Token] = tok

		case "open_directory":
			parent, ok := tokens[w.Parent]
			if !ok {
				return svnerr.New(svnerr.KindInvariant, "replay: open_directory references unknown parent token %d", w.Parent)
			}
			tok, e := tracked.OpenDirectory(ctx, w.Name, parent, w.BaseRev)
			if e != nil {
				return e
			}
			tokens[w.Token] = tok

		case "change_dir_prop":
			dir, ok := tokens[w.Token]
			if !ok {
				return svnerr.New(svnerr.KindInvariant, "replay: change_dir_prop references unknown token %d", w.Token)
			}
			val, e := decodePropValue(w)
			if e != nil {
				return e
			}
			if e := tracked.ChangeDirProp(ctx, dir, w.PropName, val); e != nil {
				return e
			}

		case "close_directory":
			dir, ok := tokens[w.Token]
			if !ok {
				return svnerr.New(svnerr.KindInvariant, "replay: close_directory references unknown token %d", w.Token)
			}
			if e := tracked.CloseDirectory(ctx, dir); e != nil {
				return e
			}

		case "add_file":
			parent, ok := tokens[w.Parent]
			if !ok {
				return svnerr.New(svnerr.KindInvariant, "replay: add_file references unknown parent token %d", w.Parent)
			}
			tok, e := tracked.AddFile(ctx, w.Name, parent, w.CopyFrom, w.CopyFromRev)
			if e != nil {
				return e
			}
			tokens[w.Token] = tok

		case "open_file":
			parent, ok := tokens[w.Parent]
			if !ok {
				return svnerr.New(svnerr.KindInvariant, "replay: open_file references unknown parent token %d", w.Parent)
			}
			tok, e := tracked.OpenFile(ctx, w.Name, parent, w.BaseRev)
			if e != nil {
				return e
			}
			tokens[w.Token] = tok

		case "apply_textdelta":
			file, ok := tokens[w.Token]
			if !ok {
				return svnerr.New(svnerr.KindInvariant, "replay: apply_textdelta references unknown token %d", w.Token)
			}
			sum, e := decodeChecksum(w.ChecksumAlgo, w.ChecksumB)
			if e != nil {
				return e
			}
			h, e := tracked.ApplyTextDelta(ctx, file, sum)
			if e != nil {
				return e
			}
			windowHandler = h
			windowFileWire = w.Token

		case "window":
			if windowHandler == nil || w.Token != windowFileWire {
				return svnerr.New(svnerr.KindInvariant, "replay: window event outside an apply_textdelta run (token %d)", w.Token)
			}
			win, e := decodeWindow(w)
			if e != nil {
				return e
			}
			if e := windowHandler(ctx, win); e != nil {
				return e
			}

		case "window_end":
			if windowHandler == nil || w.Token != windowFileWire {
				return svnerr.New(svnerr.KindInvariant, "replay: window_end event outside an apply_textdelta run (token %d)", w.Token)
			}
			if e := windowHandler(ctx, nil); e != nil {
				return e
			}
			windowHandler = nil

		case "change_file_prop":
			file, ok := tokens[w.Token]
			if !ok {
				return svnerr.New(svnerr.KindInvariant, "replay: change_file_prop references unknown token %d", w.Token)
			}
			val, e := decodePropValue(w)
			if e != nil {
				return e
			}
			if e := tracked.ChangeFileProp(ctx, file, w.PropName, val); e != nil {
				return e
			}

		case "close_file":
			file, ok := tokens[w.Token]
			if !ok {
				return svnerr.New(svnerr.KindInvariant, "replay: close_file references unknown token %d", w.Token)
			}
			sum, e := decodeChecksum(w.ChecksumAlgo, w.ChecksumB)
			if e != nil {
				return e
			}
			if e := tracked.CloseFile(ctx, file, sum); e != nil {
				return e
			}

		case "close_edit":
			return tracked.CloseEdit(ctx)

		case "abort_edit":
			return svnerr.New(svnerr.KindServerError, "replay: server aborted the edit")

		default:
			return svnerr.New(svnerr.KindInvariant, "replay: unknown edit event %q", w.Op)
		}
	}

	return svnerr.New(svnerr.KindInvariant, "replay: edit stream ended without close_edit")
}

// DoUpdate drives ed with the server's description of the delta between
// target's current working-copy state (at baseRev) and targetRev (spec.md
// §6 do_update). recurse controls whether children of target are included.
func (s *DAVSession) DoUpdate(ctx context.Context, target string, baseRev, targetRev int64, recurse bool, ed editor.Editor) error {
	reqPath := fmt.Sprintf("/update?target=%s&base_rev=%d&target_rev=%d&recurse=%t", url.QueryEscape(target), baseRev, targetRev, recurse)
	resp, err := s.client.do(ctx, http.MethodGet, reqPath, nil, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return replayEdit(ctx, resp.Body, ed)
}

// DoSwitch is DoUpdate to a different repository location (spec.md §6
// do_switch): target is switched from its current URL onto switchURL.
func (s *DAVSession) DoSwitch(ctx context.Context, target, switchURL string, baseRev, targetRev int64, recurse bool, ed editor.Editor) error {
	reqPath := fmt.Sprintf("/switch?target=%s&switch_url=%s&base_rev=%d&target_rev=%d&recurse=%t",
		url.QueryEscape(target), url.QueryEscape(switchURL), baseRev, targetRev, recurse)
	resp, err := s.client.do(ctx, http.MethodGet, reqPath, nil, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return replayEdit(ctx, resp.Body, ed)
}

// DoDiff describes the delta between target at fromRev and toRev without
// any implication that a working copy is being brought up to date (spec.md
// §6 do_diff) — the same wire shape, consumed by a diff-printing Editor
// instead of a working-copy writer.
func (s *DAVSession) DoDiff(ctx context.Context, target string, fromRev, toRev int64, recurse bool, ed editor.Editor) error {
	reqPath := fmt.Sprintf("/diff?target=%s&from_rev=%d&to_rev=%d&recurse=%t", url.QueryEscape(target), fromRev, toRev, recurse)
	resp, err := s.client.do(ctx, http.MethodGet, reqPath, nil, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return replayEdit(ctx, resp.Body, ed)
}

// DoStatus describes the delta between target's working-copy base
// revisions and targetRev without transferring any new content the
// working copy doesn't already have pristine (spec.md §6 do_status) —
// consumed by a status-collecting Editor that only cares about
// open/delete/add shape, not text.
func (s *DAVSession) DoStatus(ctx context.Context, target string, targetRev int64, recurse bool, ed editor.Editor) error {
	reqPath := fmt.Sprintf("/status?target=%s&target_rev=%d&recurse=%t", url.QueryEscape(target), targetRev, recurse)
	resp, err := s.client.do(ctx, http.MethodGet, reqPath, nil, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return replayEdit(ctx, resp.Body, ed)
}

package rasession

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tonimelisma/svngo/internal/editor"
)

// recordingEditor logs every call it receives, in order, returning
// sequential synthetic tokens. Grounded on the teacher's call-recording
// fakes (internal/commit/fakes_test.go's Session fake).
type recordingEditor struct {
	calls []string
	next  int
}

func (e *recordingEditor) tok() int {
	e.next++
	return e.next
}

func (e *recordingEditor) OpenRoot(ctx context.Context, baseRev int64) (editor.Token, error) {
	e.calls = append(e.calls, fmt.Sprintf("open_root(%d)", baseRev))
	return e.tok(), nil
}

func (e *recordingEditor) DeleteEntry(ctx context.Context, name string, baseRev int64, parent editor.Token) error {
	e.calls = append(e.calls, fmt.Sprintf("delete_entry(%s,%d)", name, baseRev))
	return nil
}

func (e *recordingEditor) AddDirectory(ctx context.Context, name string, parent editor.Token, copyFrom string, copyFromRev int64) (editor.Token, error) {
	e.calls = append(e.calls, fmt.Sprintf("add_directory(%s)", name))
	return e.tok(), nil
}

func (e *recordingEditor) OpenDirectory(ctx context.Context, name string, parent editor.Token, baseRev int64) (editor.Token, error) {
	e.calls = append(e.calls, fmt.Sprintf("open_directory(%s,%d)", name, baseRev))
	return e.tok(), nil
}

func (e *recordingEditor) ChangeDirProp(ctx context.Context, dir editor.Token, name string, value editor.PropValue) error {
	e.calls = append(e.calls, fmt.Sprintf("change_dir_prop(%s)", name))
	return nil
}

func (e *recordingEditor) CloseDirectory(ctx context.Context, dir editor.Token) error {
	e.calls = append(e.calls, "close_directory")
	return nil
}

func (e *recordingEditor) AddFile(ctx context.Context, name string, parent editor.Token, copyFrom string, copyFromRev int64) (editor.Token, error) {
	e.calls = append(e.calls, fmt.Sprintf("add_file(%s)", name))
	return e.tok(), nil
}

func (e *recordingEditor) OpenFile(ctx context.Context, name string, parent editor.Token, baseRev int64) (editor.Token, error) {
	e.calls = append(e.calls, fmt.Sprintf("open_file(%s,%d)", name, baseRev))
	return e.tok(), nil
}

var gotWindowBytes []byte

func (e *recordingEditor) ApplyTextDelta(ctx context.Context, file editor.Token, baseChecksum editor.Checksum) (editor.WindowHandler, error) {
	e.calls = append(e.calls, "apply_textdelta")
	return func(ctx context.Context, w *editor.Window) error {
		if w == nil {
			e.calls = append(e.calls, "window(nil)")
			return nil
		}
		out, err := w.Apply(nil, gotWindowBytes)
		if err != nil {
			return err
		}
		gotWindowBytes = append(gotWindowBytes, out...)
		e.calls = append(e.calls, fmt.Sprintf("window(%d)", len(out)))
		return nil
	}, nil
}

func (e *recordingEditor) ChangeFileProp(ctx context.Context, file editor.Token, name string, value editor.PropValue) error {
	e.calls = append(e.calls, fmt.Sprintf("change_file_prop(%s)", name))
	return nil
}

func (e *recordingEditor) CloseFile(ctx context.Context, file editor.Token, resultChecksum editor.Checksum) error {
	e.calls = append(e.calls, "close_file")
	return nil
}

func (e *recordingEditor) CloseEdit(ctx context.Context) error {
	e.calls = append(e.calls, "close_edit")
	return nil
}

func (e *recordingEditor) AbortEdit(ctx context.Context) error {
	e.calls = append(e.calls, "abort_edit")
	return nil
}

func TestDoUpdateReplaysEditStreamInOrder(t *testing.T) {
	gotWindowBytes = nil

	lit := base64.StdEncoding.EncodeToString([]byte("hello"))
	body := `{"op":"open_root","base_rev":10}
{"op":"add_file","name":"a.txt","parent":0,"token":1}
{"op":"apply_textdelta","token":1}
{"op":"window","token":1,"target_length":5,"ops":[{"kind":"literal","data":"` + lit + `"}]}
{"op":"window_end","token":1}
{"op":"close_file","token":1}
{"op":"close_directory","token":0}
{"op":"close_edit"}
`

	sess, _ := newTestSession(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/update", r.URL.Path)
		assert.Equal(t, "12", r.URL.Query().Get("target_rev"))
		w.Write([]byte(body))
	})

	ed := &recordingEditor{}
	err := sess.DoUpdate(context.Background(), "", 10, 12, true, ed)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"open_root(10)",
		"add_file(a.txt)",
		"apply_textdelta",
		"window(5)",
		"window(nil)",
		"close_file",
		"close_directory",
		"close_edit",
	}, ed.calls)
	assert.Equal(t, "hello", string(gotWindowBytes))
}

func TestDoUpdateAbortsOnServerAbort(t *testing.T) {
	body := `{"op":"open_root","base_rev":10}
{"op":"abort_edit"}
`
	sess, _ := newTestSession(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body))
	})

	ed := &recordingEditor{}
	err := sess.DoUpdate(context.Background(), "", 10, 12, true, ed)
	require.Error(t, err)
	assert.Contains(t, ed.calls, "abort_edit")
}

func TestDoSwitchAndDoDiffAndDoStatusHitExpectedPaths(t *testing.T) {
	for _, tc := range []struct {
		name string
		call func(sess *DAVSession, ed editor.Editor) error
		path string
	}{
		{"switch", func(sess *DAVSession, ed editor.Editor) error {
			return sess.DoSwitch(context.Background(), "a", "b", 1, 2, true, ed)
		}, "/switch"},
		{"diff", func(sess *DAVSession, ed editor.Editor) error {
			return sess.DoDiff(context.Background(), "a", 1, 2, true, ed)
		}, "/diff"},
		{"status", func(sess *DAVSession, ed editor.Editor) error {
			return sess.DoStatus(context.Background(), "a", 2, true, ed)
		}, "/status"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			sess, _ := newTestSession(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, tc.path, r.URL.Path)
				w.Write([]byte(`{"op":"open_root","base_rev":1}
{"op":"close_directory","token":0}
{"op":"close_edit"}
`))
			})

			err := tc.call(sess, &recordingEditor{})
			require.NoError(t, err)
		})
	}
}

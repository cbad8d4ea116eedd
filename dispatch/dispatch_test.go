package dispatch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	fzfpipe "github.com/Paranoid-AF/fzfpipe"
	"github.com/Paranoid-AF/fzfpipe/editor"
	"github.com/Paranoid-AF/fzfpipe/protocol"
)

// recordingEditor logs every call in order.
type recordingEditor struct {
	calls   []string
	showErr error
}

func (r *recordingEditor) ShowDocument(_ context.Context, path string) (editor.Document, error) {
	r.calls = append(r.calls, "show "+path)
	if r.showErr != nil {
		return nil, r.showErr
	}
	return &recordingDocument{editor: r, path: path}, nil
}

func (r *recordingEditor) AddWorkspaceFolder(_ context.Context, path string) error {
	r.calls = append(r.calls, "add "+path)
	return nil
}

func (r *recordingEditor) ShowExplorer(_ context.Context) error {
	r.calls = append(r.calls, "explorer")
	return nil
}

type recordingDocument struct {
	editor *recordingEditor
	path   string
}

func (d *recordingDocument) Path() string { return d.path }

func (d *recordingDocument) Reveal(_ context.Context, pos fzfpipe.Position) error {
	d.editor.calls = append(d.editor.calls, fmt.Sprintf("reveal %s %d:%d", d.path, pos.Line, pos.Column))
	return nil
}

func setup(t *testing.T) (string, *recordingEditor, *Dispatcher) {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "file.txt"), []byte("hello\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Mkdir(filepath.Join(dir, "lib"), 0o755); err != nil {
		t.Fatal(err)
	}
	rec := &recordingEditor{}
	return dir, rec, New(rec)
}

func dispatchLine(d *Dispatcher, line string) Action {
	return d.DispatchResult(context.Background(), protocol.Decode([]byte(line)))
}

func TestDispatchOpen(t *testing.T) {
	dir, rec, d := setup(t)

	if got := dispatchLine(d, "open$$"+dir+"$$file.txt"); got != ActionOpen {
		t.Errorf("expected %s, got %s", ActionOpen, got)
	}
	want := []string{"show " + filepath.Join(dir, "file.txt")}
	if !reflect.DeepEqual(rec.calls, want) {
		t.Errorf("expected %q, got %q", want, rec.calls)
	}
}

func TestDispatchEmptyArgument(t *testing.T) {
	dir, rec, d := setup(t)

	if got := dispatchLine(d, "open$$"+dir+"$$  "); got != ActionNone {
		t.Errorf("expected %s, got %s", ActionNone, got)
	}
	if len(rec.calls) != 0 {
		t.Errorf("expected no editor calls, got %q", rec.calls)
	}
}

func TestDispatchSearchRevealsZeroBased(t *testing.T) {
	dir, rec, d := setup(t)

	if got := dispatchLine(d, "rg$$"+dir+"$$file.txt:10:5"); got != ActionReveal {
		t.Errorf("expected %s, got %s", ActionReveal, got)
	}
	path := filepath.Join(dir, "file.txt")
	want := []string{"show " + path, "reveal " + path + " 9:4"}
	if !reflect.DeepEqual(rec.calls, want) {
		t.Errorf("expected %q, got %q", want, rec.calls)
	}
}

func TestDispatchSearchShowFailureSkipsReveal(t *testing.T) {
	dir, rec, d := setup(t)
	rec.showErr = errors.New("editor gone")

	if got := dispatchLine(d, "rg$$"+dir+"$$file.txt:1:1"); got != ActionNone {
		t.Errorf("expected %s, got %s", ActionNone, got)
	}
	if len(rec.calls) != 1 {
		t.Errorf("expected only the show attempt, got %q", rec.calls)
	}
}

func TestDispatchAdd(t *testing.T) {
	dir, rec, d := setup(t)

	if got := dispatchLine(d, "add$$"+dir+"$$lib"); got != ActionAdd {
		t.Errorf("expected %s, got %s", ActionAdd, got)
	}
	want := []string{"add " + filepath.Join(dir, "lib"), "explorer"}
	if !reflect.DeepEqual(rec.calls, want) {
		t.Errorf("expected %q, got %q", want, rec.calls)
	}
}

func TestDispatchAddMissingFolder(t *testing.T) {
	dir, rec, d := setup(t)

	if got := dispatchLine(d, "add$$"+dir+"$$sub"); got != ActionNone {
		t.Errorf("expected %s, got %s", ActionNone, got)
	}
	if len(rec.calls) != 0 {
		t.Errorf("expected no workspace change or explorer, got %q", rec.calls)
	}
}

func TestDispatchMissingFile(t *testing.T) {
	dir, rec, d := setup(t)

	for _, line := range []string{
		"open$$" + dir + "$$gone.txt",
		"rg$$" + dir + "$$gone.txt:3:1",
	} {
		if got := dispatchLine(d, line); got != ActionNone {
			t.Errorf("%q: expected %s, got %s", line, ActionNone, got)
		}
	}
	if len(rec.calls) != 0 {
		t.Errorf("expected no editor calls, got %q", rec.calls)
	}
}

func TestDispatchUnknownKind(t *testing.T) {
	dir, rec, d := setup(t)

	if got := dispatchLine(d, "delete$$"+dir+"$$file.txt"); got != ActionNone {
		t.Errorf("expected %s, got %s", ActionNone, got)
	}
	if len(rec.calls) != 0 {
		t.Errorf("expected no editor calls, got %q", rec.calls)
	}
}

func TestDispatchRepeatsWithoutDedup(t *testing.T) {
	dir, rec, d := setup(t)

	line := "open$$" + dir + "$$file.txt"
	dispatchLine(d, line)
	dispatchLine(d, line)

	if len(rec.calls) != 2 || rec.calls[0] != rec.calls[1] {
		t.Errorf("expected the same action twice, got %q", rec.calls)
	}
}

func TestHandleLineProcessesChunkInOrder(t *testing.T) {
	dir, rec, d := setup(t)

	chunk := "open$$" + dir + "$$file.txt\nopen$$" + dir + "$$\nadd$$" + dir + "$$lib\n"
	d.HandleLine(context.Background(), []byte(chunk))

	want := []string{
		"show " + filepath.Join(dir, "file.txt"),
		"add " + filepath.Join(dir, "lib"),
		"explorer",
	}
	if !reflect.DeepEqual(rec.calls, want) {
		t.Errorf("expected %q, got %q", want, rec.calls)
	}
}

package script

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(t.TempDir(), nil)
}

func floatPtr(v float64) *float64 { return &v }
func strPtr(v string) *string     { return &v }

func TestEnsure_CreatesEmptyDocument(t *testing.T) {
	store := newTestStore(t)

	if err := store.Ensure("demo"); err != nil {
		t.Fatalf("Ensure() error = %v", err)
	}

	path, _ := store.DocumentPath("demo")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read document: %v", err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("document is not valid JSON: %v", err)
	}
	if string(raw["timecodes"]) != "[]" {
		t.Errorf("timecodes = %s, want []", raw["timecodes"])
	}
	if string(raw["script"]) != "[]" {
		t.Errorf("script = %s, want []", raw["script"])
	}
}

func TestEnsure_DoesNotOverwriteExisting(t *testing.T) {
	store := newTestStore(t)

	tc := Timecode{ID: "tc-1", InTime: 0, OutTime: 2, Text: "hello"}
	if _, err := store.AddTimecode("demo", tc, ""); err != nil {
		t.Fatalf("AddTimecode() error = %v", err)
	}

	if err := store.Ensure("demo"); err != nil {
		t.Fatalf("Ensure() error = %v", err)
	}

	doc, err := store.Load("demo")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(doc.Timecodes) != 1 {
		t.Errorf("len(Timecodes) = %d, want 1", len(doc.Timecodes))
	}
}

func TestLoad_MissingProject(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Load("nope")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Load() error = %v, want ErrNotFound", err)
	}
}

func TestLoad_CorruptDocument(t *testing.T) {
	store := newTestStore(t)
	if err := store.Ensure("demo"); err != nil {
		t.Fatalf("Ensure() error = %v", err)
	}

	path, _ := store.DocumentPath("demo")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatalf("failed to corrupt document: %v", err)
	}

	_, err := store.Load("demo")
	if !errors.Is(err, ErrCorruptState) {
		t.Fatalf("Load() error = %v, want ErrCorruptState", err)
	}
}

func TestCleanName_RejectsUnsafeNames(t *testing.T) {
	store := newTestStore(t)

	for _, name := range []string{"", "  ", "..", "a/b", "../escape"} {
		if err := store.Ensure(name); !errors.Is(err, ErrInvalidProject) {
			t.Errorf("Ensure(%q) error = %v, want ErrInvalidProject", name, err)
		}
	}
}

func TestCleanName_TrimsWhitespace(t *testing.T) {
	store := newTestStore(t)

	dir, err := store.Dir("  demo  ")
	if err != nil {
		t.Fatalf("Dir() error = %v", err)
	}
	if filepath.Base(dir) != "demo" {
		t.Errorf("Dir() = %q, want base %q", dir, "demo")
	}
}

func TestAttachImage_DecodesAndReturnsURL(t *testing.T) {
	store := newTestStore(t)

	payload := base64.StdEncoding.EncodeToString([]byte("png bytes"))
	url, err := store.AttachImage("demo", payload, "tc-1.png")
	if err != nil {
		t.Fatalf("AttachImage() error = %v", err)
	}
	if url != "/images/demo/tc-1.png" {
		t.Errorf("url = %q, want %q", url, "/images/demo/tc-1.png")
	}

	imgDir, _ := store.ImagesDir("demo")
	data, err := os.ReadFile(filepath.Join(imgDir, "tc-1.png"))
	if err != nil {
		t.Fatalf("failed to read stored image: %v", err)
	}
	if string(data) != "png bytes" {
		t.Errorf("stored image = %q, want %q", data, "png bytes")
	}
}

func TestAttachImage_StripsDataURLPrefix(t *testing.T) {
	store := newTestStore(t)

	payload := "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("x"))
	if _, err := store.AttachImage("demo", payload, "a.png"); err != nil {
		t.Fatalf("AttachImage() error = %v", err)
	}
}

func TestAttachImage_RejectsPathyFileName(t *testing.T) {
	store := newTestStore(t)

	if _, err := store.AttachImage("demo", "aGk=", "../a.png"); err == nil {
		t.Fatal("AttachImage() expected error for path traversal file name")
	}
}

func TestUpdateTimecode_FansOutToScenes(t *testing.T) {
	store := newTestStore(t)

	doc := NewDocument()
	doc.Timecodes = []Timecode{{ID: "tc-1", Text: "old"}}
	doc.Script = []Scene{
		{ID: "sc-1", Timecodes: []Timecode{{ID: "tc-1", Text: "old"}}},
		{ID: "sc-2", Timecodes: []Timecode{{ID: "tc-1", Text: "old"}, {ID: "tc-2", Text: "keep"}}},
	}
	if err := store.Write("demo", doc); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	patch := TimecodePatch{Text: strPtr("new"), InTime: floatPtr(1.5)}
	if err := store.UpdateTimecode("demo", "tc-1", patch); err != nil {
		t.Fatalf("UpdateTimecode() error = %v", err)
	}

	got, err := store.Load("demo")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.Timecodes[0].Text != "new" || got.Timecodes[0].InTime != 1.5 {
		t.Errorf("root timecode = %+v, want text new, inTime 1.5", got.Timecodes[0])
	}
	for _, scene := range got.Script {
		for _, tc := range scene.Timecodes {
			if tc.ID == "tc-1" && tc.Text != "new" {
				t.Errorf("scene %s copy not updated: %+v", scene.ID, tc)
			}
			if tc.ID == "tc-2" && tc.Text != "keep" {
				t.Errorf("scene %s unrelated timecode changed: %+v", scene.ID, tc)
			}
		}
	}
}

func TestUpdateTimecode_NilFieldsUntouched(t *testing.T) {
	store := newTestStore(t)

	doc := NewDocument()
	doc.Timecodes = []Timecode{{ID: "tc-1", InTime: 3, OutTime: 7, Text: "text", ImageURL: "/images/demo/tc-1.png"}}
	if err := store.Write("demo", doc); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	if err := store.UpdateTimecode("demo", "tc-1", TimecodePatch{Text: strPtr("edited")}); err != nil {
		t.Fatalf("UpdateTimecode() error = %v", err)
	}

	got, _ := store.Load("demo")
	tc := got.Timecodes[0]
	if tc.InTime != 3 || tc.OutTime != 7 || tc.ImageURL != "/images/demo/tc-1.png" {
		t.Errorf("unpatched fields changed: %+v", tc)
	}
	if tc.Text != "edited" {
		t.Errorf("Text = %q, want %q", tc.Text, "edited")
	}
}

func TestUpdateScene_PatchesOwnFieldsOnly(t *testing.T) {
	store := newTestStore(t)

	doc := NewDocument()
	doc.Timecodes = []Timecode{{ID: "tc-1", Text: "root"}}
	doc.Script = []Scene{{ID: "sc-1", Name: "Scene 1", Timecodes: []Timecode{{ID: "tc-1", Text: "root"}}}}
	if err := store.Write("demo", doc); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	if err := store.UpdateScene("demo", "sc-1", ScenePatch{Name: strPtr("Opening"), Locution: strPtr("read slowly")}); err != nil {
		t.Fatalf("UpdateScene() error = %v", err)
	}

	got, _ := store.Load("demo")
	if got.Script[0].Name != "Opening" || got.Script[0].Locution != "read slowly" {
		t.Errorf("scene = %+v, want patched name and locution", got.Script[0])
	}
	if got.Timecodes[0].Text != "root" {
		t.Errorf("root timecode changed by scene patch: %+v", got.Timecodes[0])
	}
}

func TestUpdateSceneAudios_TargetsAudiosOnly(t *testing.T) {
	store := newTestStore(t)

	doc := NewDocument()
	doc.Script = []Scene{{
		ID:        "sc-1",
		Timecodes: []Timecode{{ID: "tc-1", Text: "visual"}},
		Audios:    []Timecode{{ID: "tc-1", Text: "audio"}},
	}}
	if err := store.Write("demo", doc); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	if err := store.UpdateSceneAudios("demo", "tc-1", TimecodePatch{Text: strPtr("narration")}); err != nil {
		t.Fatalf("UpdateSceneAudios() error = %v", err)
	}

	got, _ := store.Load("demo")
	if got.Script[0].Audios[0].Text != "narration" {
		t.Errorf("audio entry = %+v, want text narration", got.Script[0].Audios[0])
	}
	if got.Script[0].Timecodes[0].Text != "visual" {
		t.Errorf("timecode entry changed: %+v", got.Script[0].Timecodes[0])
	}
}

func TestDeleteTimecode_RemovesEverywhere(t *testing.T) {
	store := newTestStore(t)

	payload := base64.StdEncoding.EncodeToString([]byte("img"))
	tc := Timecode{ID: "tc-1", Text: "doomed"}
	if _, err := store.AddTimecode("demo", tc, payload); err != nil {
		t.Fatalf("AddTimecode() error = %v", err)
	}

	doc, _ := store.Load("demo")
	doc.Script = []Scene{{
		ID:        "sc-1",
		Timecodes: []Timecode{{ID: "tc-1"}, {ID: "tc-2"}},
		Audios:    []Timecode{{ID: "tc-1"}},
	}}
	if err := store.Write("demo", doc); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	if err := store.DeleteTimecode("demo", "tc-1"); err != nil {
		t.Fatalf("DeleteTimecode() error = %v", err)
	}

	got, _ := store.Load("demo")
	if len(got.Timecodes) != 0 {
		t.Errorf("root timecodes = %+v, want empty", got.Timecodes)
	}
	if len(got.Script[0].Timecodes) != 1 || got.Script[0].Timecodes[0].ID != "tc-2" {
		t.Errorf("scene timecodes = %+v, want only tc-2", got.Script[0].Timecodes)
	}
	if len(got.Script[0].Audios) != 0 {
		t.Errorf("scene audios = %+v, want empty", got.Script[0].Audios)
	}

	imgDir, _ := store.ImagesDir("demo")
	if _, err := os.Stat(filepath.Join(imgDir, "tc-1.png")); !os.IsNotExist(err) {
		t.Errorf("image still present after delete, stat err = %v", err)
	}
}

func TestDeleteTimecode_MissingImageIsNotAnError(t *testing.T) {
	store := newTestStore(t)

	if _, err := store.AddTimecode("demo", Timecode{ID: "tc-1"}, ""); err != nil {
		t.Fatalf("AddTimecode() error = %v", err)
	}
	if err := store.DeleteTimecode("demo", "tc-1"); err != nil {
		t.Fatalf("DeleteTimecode() error = %v", err)
	}
}

func TestReset_TruncatesDocumentAndImages(t *testing.T) {
	store := newTestStore(t)

	payload := base64.StdEncoding.EncodeToString([]byte("img"))
	if _, err := store.AddTimecode("demo", Timecode{ID: "tc-1"}, payload); err != nil {
		t.Fatalf("AddTimecode() error = %v", err)
	}

	if err := store.Reset("demo"); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}

	doc, err := store.Load("demo")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(doc.Timecodes) != 0 || len(doc.Script) != 0 {
		t.Errorf("document after reset = %+v, want empty", doc)
	}

	imgDir, _ := store.ImagesDir("demo")
	entries, err := os.ReadDir(imgDir)
	if err != nil {
		t.Fatalf("failed to read images dir: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("images dir has %d entries after reset, want 0", len(entries))
	}
}

func TestReplaceDocument(t *testing.T) {
	store := newTestStore(t)

	if _, err := store.AddTimecode("demo", Timecode{ID: "a"}, ""); err != nil {
		t.Fatalf("AddTimecode() error = %v", err)
	}

	next := NewDocument()
	next.Timecodes = []Timecode{{ID: "b"}, {ID: "a"}}
	if err := store.ReplaceDocument("demo", next); err != nil {
		t.Fatalf("ReplaceDocument() error = %v", err)
	}

	got, _ := store.Load("demo")
	if len(got.Timecodes) != 2 || got.Timecodes[0].ID != "b" {
		t.Errorf("timecodes = %+v, want reordered [b a]", got.Timecodes)
	}
}

func TestReferencedImages(t *testing.T) {
	doc := &Document{Timecodes: []Timecode{
		{ID: "a", ImageURL: "/images/demo/a.png"},
		{ID: "b"},
		{ID: "c", ImageURL: "c.png"},
	}}

	got := doc.ReferencedImages()
	want := []string{"a.png", "c.png"}
	if len(got) != len(want) {
		t.Fatalf("ReferencedImages() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("ReferencedImages()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

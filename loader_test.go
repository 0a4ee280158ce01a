package stagehand

import (
	"bytes"
	"errors"
	"image"
	"image/png"
	"testing"
	"testing/fstest"

	"golang.org/x/image/font/gofont/goregular"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewNRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func newTestLoader(t *testing.T) *Loader {
	return NewLoader(fstest.MapFS{
		"hello.txt":   {Data: []byte("hello")},
		"lines.txt":   {Data: []byte("one\r\ntwo\nthree\n")},
		"data.json":   {Data: []byte(`{"name": "stagehand", "level": 3}`)},
		"broken.json": {Data: []byte(`{"name":`)},
		"sheet.png":   {Data: pngBytes(t, 64, 32)},
		"font.ttf":    {Data: goregular.TTF},
		"beep.xyz":    {Data: []byte("?")},
	}, nil)
}

func TestLoaderText(t *testing.T) {
	l := newTestLoader(t)
	a, err := l.Text("greeting", "hello.txt", false)
	if err != nil {
		t.Fatalf("Text: %v", err)
	}
	if a.Contents != "hello" || a.Key() != "greeting" || a.Type() != AssetString {
		t.Errorf("asset = %+v", a)
	}
	if l.Get("greeting") != a || !l.Has("greeting") || l.Len() != 1 {
		t.Error("asset not stored under its key")
	}
}

func TestLoaderDuplicateKey(t *testing.T) {
	l := newTestLoader(t)
	if _, err := l.Text("k", "hello.txt", false); err != nil {
		t.Fatal(err)
	}
	_, err := l.Text("k", "lines.txt", false)
	if !errors.Is(err, ErrAssetExists) {
		t.Errorf("err = %v, want ErrAssetExists", err)
	}
	a, err := l.Text("k", "lines.txt", true)
	if err != nil {
		t.Fatalf("replace: %v", err)
	}
	if l.Get("k") != a {
		t.Error("replace did not swap the asset")
	}
	if !l.Remove("k") || l.Remove("k") {
		t.Error("Remove should report true once")
	}
}

func TestLoaderMissingFile(t *testing.T) {
	l := newTestLoader(t)
	if _, err := l.Text("k", "nope.txt", false); err == nil {
		t.Error("missing file returned nil error")
	}
	if l.Has("k") {
		t.Error("failed load stored an asset")
	}
}

func TestLoaderJSON(t *testing.T) {
	l := newTestLoader(t)
	a, err := l.JSON("data", "data.json", false)
	if err != nil {
		t.Fatalf("JSON: %v", err)
	}
	var v struct {
		Name  string `json:"name"`
		Level int    `json:"level"`
	}
	if err := a.Decode(&v); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if v.Name != "stagehand" || v.Level != 3 {
		t.Errorf("decoded %+v", v)
	}
	if _, err := l.JSON("broken", "broken.json", false); err == nil {
		t.Error("invalid JSON accepted")
	}
}

func TestLoaderLineByLine(t *testing.T) {
	l := newTestLoader(t)
	a, err := l.LineByLine("lines", "lines.txt", false)
	if err != nil {
		t.Fatalf("LineByLine: %v", err)
	}
	if a.Len() != 3 || a.Line(1) != "two" || a.Line(5) != "" {
		t.Errorf("lines = %q", a.Lines)
	}
	var got []string
	for line, ok := a.Next(); ok; line, ok = a.Next() {
		got = append(got, line)
	}
	if len(got) != 3 || got[0] != "one" {
		t.Errorf("Next yielded %q", got)
	}
	a.Reset()
	if line, _ := a.Next(); line != "one" {
		t.Errorf("after Reset Next = %q, want one", line)
	}
}

func TestLoaderSpritesheet(t *testing.T) {
	l := newTestLoader(t)
	s, err := l.Spritesheet("sheet", "sheet.png", 16, 16, false)
	if err != nil {
		t.Fatalf("Spritesheet: %v", err)
	}
	if s.Width != 64 || s.Height != 32 || s.FrameCount() != 8 || s.Type() != AssetSpritesheet {
		t.Errorf("sheet %dx%d frames=%d type=%v", s.Width, s.Height, s.FrameCount(), s.Type())
	}
	img, err := l.Image("plain", "sheet.png", false)
	if err != nil {
		t.Fatalf("Image: %v", err)
	}
	if img.Type() != AssetImage {
		t.Errorf("Type = %v, want image", img.Type())
	}
	if _, err := l.Image("bad", "hello.txt", false); err == nil {
		t.Error("non-image decoded")
	}
}

func TestLoaderFont(t *testing.T) {
	l := newTestLoader(t)
	f, err := l.Font("body", "font.ttf", 16, false)
	if err != nil {
		t.Fatalf("Font: %v", err)
	}
	if f.Size != 16 || f.Face().Size != 16 {
		t.Errorf("size = %v", f.Size)
	}
	if _, err := l.Font("bad", "hello.txt", 16, false); err == nil {
		t.Error("non-font parsed")
	}
}

func TestLoaderSoundNeedsAudio(t *testing.T) {
	l := newTestLoader(t)
	if _, err := l.Sound("beep", "beep.xyz", false); err == nil {
		t.Error("Sound without an audio context returned nil error")
	}
	if _, err := decodeAudio(".xyz", nil); err == nil {
		t.Error("unsupported format decoded")
	}
}

func TestAssetTypeString(t *testing.T) {
	if AssetLines.String() != "lines" || AssetType(200).String() != "unknown" {
		t.Error("AssetType.String mismatch")
	}
}

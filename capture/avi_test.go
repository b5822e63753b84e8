package capture

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/jpeg"
	"os"
	"path/filepath"
	"testing"
)

func encodeTestFrame(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h)), nil); err != nil {
		t.Fatalf("encode frame: %v", err)
	}
	return buf.Bytes()
}

func TestAVIWriterProducesReadableContainer(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clip.avi")
	w, err := newAVIWriter(path, 64, 48, 15)
	if err != nil {
		t.Fatalf("newAVIWriter: %v", err)
	}

	frame := encodeTestFrame(t, 64, 48)
	const frames = 3
	for i := 0; i < frames; i++ {
		if err := w.AddFrame(frame); err != nil {
			t.Fatalf("AddFrame(%d): %v", i, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read clip: %v", err)
	}

	if got := string(raw[0:4]); got != "RIFF" {
		t.Errorf("magic = %q, want RIFF", got)
	}
	if got := string(raw[8:12]); got != "AVI " {
		t.Errorf("form type = %q, want %q", got, "AVI ")
	}
	if got := binary.LittleEndian.Uint32(raw[4:8]); got != uint32(len(raw)-8) {
		t.Errorf("riff size = %d, want %d", got, len(raw)-8)
	}

	// avih sits at a fixed offset: RIFF(12) + LIST hdr(12) + "avih"+size(8).
	avih := raw[32:]
	if got := binary.LittleEndian.Uint32(avih[0:4]); got != 1000000/15 {
		t.Errorf("microseconds per frame = %d, want %d", got, 1000000/15)
	}
	if got := binary.LittleEndian.Uint32(avih[16:20]); got != frames {
		t.Errorf("total frames = %d, want %d", got, frames)
	}
	if got := binary.LittleEndian.Uint32(avih[32:36]); got != 64 {
		t.Errorf("width = %d, want 64", got)
	}
	if got := binary.LittleEndian.Uint32(avih[36:40]); got != 48 {
		t.Errorf("height = %d, want 48", got)
	}

	if !bytes.Contains(raw, []byte("movi")) {
		t.Error("container has no movi list")
	}
	if !bytes.Contains(raw, []byte("MJPG")) {
		t.Error("container does not declare MJPG")
	}
	if !bytes.Contains(raw, []byte("idx1")) {
		t.Error("container has no idx1 index")
	}
	if got := bytes.Count(raw, []byte("00dc")); got != frames+frames {
		// One fourcc per movi chunk plus one per index entry.
		t.Errorf("00dc occurrences = %d, want %d", got, frames+frames)
	}
}

func TestAVIWriterPadsOddFrames(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clip.avi")
	w, err := newAVIWriter(path, 8, 8, 10)
	if err != nil {
		t.Fatalf("newAVIWriter: %v", err)
	}

	odd := append(encodeTestFrame(t, 8, 8), 0xFF)
	if len(odd)%2 == 0 {
		odd = append(odd, 0xFF)
	}
	if err := w.AddFrame(odd); err != nil {
		t.Fatalf("AddFrame: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Size()%2 != 0 {
		t.Errorf("file size %d is odd, chunks must be word-aligned", info.Size())
	}
}

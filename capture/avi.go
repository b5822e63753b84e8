package capture

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

// aviWriter streams MJPEG frames into an AVI container. Each frame is one
// '00dc' chunk in the movi list; a standard idx1 index is appended so common
// players can seek. Sizes that depend on the frame count are back-patched on
// Close.
type aviWriter struct {
	f      *os.File
	width  int
	height int
	fps    int
	frames uint32

	riffSizeOff    int64
	totalFramesOff int64
	streamLenOff   int64
	moviSizeOff    int64
	moviStart      int64

	index []indexEntry
}

type indexEntry struct {
	offset uint32 // relative to the movi list's fourcc
	size   uint32
}

const (
	avifHasIndex    = 0x00000010
	aviifKeyframe   = 0x00000010
	aviHeaderMicros = 1000000
)

func newAVIWriter(path string, width, height, fps int) (*aviWriter, error) {
	if fps <= 0 {
		fps = 15
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create avi %s: %w", path, err)
	}
	w := &aviWriter{f: f, width: width, height: height, fps: fps}
	if err := w.writeHeaders(); err != nil {
		f.Close()
		os.Remove(path)
		return nil, err
	}
	return w, nil
}

func (w *aviWriter) writeHeaders() error {
	buf := newChunkBuffer()

	buf.bytes("RIFF")
	w.riffSizeOff = buf.len()
	buf.u32(0) // patched on Close
	buf.bytes("AVI ")

	// hdrl list: one avih and one video stream.
	buf.bytes("LIST")
	buf.u32(4 + 8 + 56 + 8 + 4 + 8 + 56 + 8 + 40)
	buf.bytes("hdrl")

	buf.bytes("avih")
	buf.u32(56)
	buf.u32(uint32(aviHeaderMicros / w.fps)) // microseconds per frame
	buf.u32(0)                               // max bytes per second, unknown
	buf.u32(0)                               // padding granularity
	buf.u32(avifHasIndex)
	w.totalFramesOff = buf.len()
	buf.u32(0) // total frames, patched on Close
	buf.u32(0) // initial frames
	buf.u32(1) // streams
	buf.u32(0) // suggested buffer size
	buf.u32(uint32(w.width))
	buf.u32(uint32(w.height))
	buf.u32(0)
	buf.u32(0)
	buf.u32(0)
	buf.u32(0)

	buf.bytes("LIST")
	buf.u32(4 + 8 + 56 + 8 + 40)
	buf.bytes("strl")

	buf.bytes("strh")
	buf.u32(56)
	buf.bytes("vids")
	buf.bytes("MJPG")
	buf.u32(0)              // flags
	buf.u32(0)              // priority + language
	buf.u32(0)              // initial frames
	buf.u32(1)              // scale
	buf.u32(uint32(w.fps))  // rate: rate/scale = fps
	buf.u32(0)              // start
	w.streamLenOff = buf.len()
	buf.u32(0)              // stream length in frames, patched on Close
	buf.u32(0)              // suggested buffer size
	buf.u32(0xFFFFFFFF)     // quality: default
	buf.u32(0)              // sample size
	buf.u16(0)              // rcFrame left
	buf.u16(0)              // rcFrame top
	buf.u16(uint16(w.width))
	buf.u16(uint16(w.height))

	buf.bytes("strf")
	buf.u32(40) // BITMAPINFOHEADER
	buf.u32(40)
	buf.u32(uint32(w.width))
	buf.u32(uint32(w.height))
	buf.u16(1)  // planes
	buf.u16(24) // bits per pixel
	buf.bytes("MJPG")
	buf.u32(uint32(w.width * w.height * 3))
	buf.u32(0)
	buf.u32(0)
	buf.u32(0)
	buf.u32(0)

	buf.bytes("LIST")
	w.moviSizeOff = buf.len()
	buf.u32(0) // patched on Close
	w.moviStart = buf.len()
	buf.bytes("movi")

	_, err := w.f.Write(buf.data)
	if err != nil {
		return fmt.Errorf("write avi headers: %w", err)
	}
	return nil
}

// AddFrame appends one JPEG-encoded frame.
func (w *aviWriter) AddFrame(jpeg []byte) error {
	pos, err := w.f.Seek(0, io.SeekCurrent)
	if err != nil {
		return err
	}
	w.index = append(w.index, indexEntry{
		offset: uint32(pos - w.moviStart),
		size:   uint32(len(jpeg)),
	})

	header := make([]byte, 8)
	copy(header, "00dc")
	binary.LittleEndian.PutUint32(header[4:], uint32(len(jpeg)))
	if _, err := w.f.Write(header); err != nil {
		return fmt.Errorf("write frame header: %w", err)
	}
	if _, err := w.f.Write(jpeg); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	if len(jpeg)%2 == 1 {
		if _, err := w.f.Write([]byte{0}); err != nil {
			return err
		}
	}
	w.frames++
	return nil
}

// Close writes the idx1 index, back-patches the size and frame-count fields
// and closes the file.
func (w *aviWriter) Close() error {
	moviEnd, err := w.f.Seek(0, io.SeekCurrent)
	if err != nil {
		w.f.Close()
		return err
	}

	idx := newChunkBuffer()
	idx.bytes("idx1")
	idx.u32(uint32(16 * len(w.index)))
	for _, e := range w.index {
		idx.bytes("00dc")
		idx.u32(aviifKeyframe)
		idx.u32(e.offset)
		idx.u32(e.size)
	}
	if _, err := w.f.Write(idx.data); err != nil {
		w.f.Close()
		return fmt.Errorf("write avi index: %w", err)
	}
	fileEnd := moviEnd + int64(len(idx.data))

	patches := []struct {
		off int64
		val uint32
	}{
		{w.riffSizeOff, uint32(fileEnd - 8)},
		{w.totalFramesOff, w.frames},
		{w.streamLenOff, w.frames},
		{w.moviSizeOff, uint32(moviEnd - w.moviStart)},
	}
	scratch := make([]byte, 4)
	for _, p := range patches {
		binary.LittleEndian.PutUint32(scratch, p.val)
		if _, err := w.f.WriteAt(scratch, p.off); err != nil {
			w.f.Close()
			return fmt.Errorf("patch avi header: %w", err)
		}
	}
	return w.f.Close()
}

// chunkBuffer builds little-endian RIFF structures.
type chunkBuffer struct {
	data []byte
}

func newChunkBuffer() *chunkBuffer { return &chunkBuffer{} }

func (b *chunkBuffer) len() int64 { return int64(len(b.data)) }

func (b *chunkBuffer) bytes(s string) { b.data = append(b.data, s...) }

func (b *chunkBuffer) u32(v uint32) {
	b.data = binary.LittleEndian.AppendUint32(b.data, v)
}

func (b *chunkBuffer) u16(v uint16) {
	b.data = binary.LittleEndian.AppendUint16(b.data, v)
}

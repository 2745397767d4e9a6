package ingest

import (
	"bytes"
	"encoding/binary"
)

// Frames captured from the browser each arrive as a self-contained
// RIFF/WAVE container with the canonical 44-byte PCM header. Naive
// concatenation yields a corrupt file because every frame's header claims
// frame-sized content, so the stitcher keeps the first header, strips the
// rest, and patches the size fields.
const (
	wavHeaderSize = 44

	// RIFF container size fields, little-endian uint32.
	riffSizeOffset = 4  // ChunkSize = 36 + data length
	dataSizeOffset = 40 // Subchunk2Size = data length
)

var (
	riffMagic = []byte("RIFF")
	waveMagic = []byte("WAVE")
)

// validWavHeader reports whether the frame starts with a RIFF/WAVE header.
func validWavHeader(frame []byte) bool {
	return len(frame) >= wavHeaderSize &&
		bytes.Equal(frame[0:4], riffMagic) &&
		bytes.Equal(frame[8:12], waveMagic)
}

// StitchFrames merges per-frame WAV containers into one playable file.
// It returns the merged bytes and whether the merge degraded to raw
// concatenation because the first frame's header was unrecognizable.
// Degraded output is best-effort, not an error: partial audio beats none.
func StitchFrames(frames [][]byte) (data []byte, degraded bool) {
	if len(frames) == 0 {
		return nil, false
	}

	if !validWavHeader(frames[0]) {
		return rawConcat(frames), true
	}

	header := make([]byte, wavHeaderSize)
	copy(header, frames[0][:wavHeaderSize])

	var payload bytes.Buffer
	for _, frame := range frames {
		if len(frame) > wavHeaderSize {
			payload.Write(frame[wavHeaderSize:])
		}
	}

	binary.LittleEndian.PutUint32(header[riffSizeOffset:riffSizeOffset+4], uint32(36+payload.Len()))
	binary.LittleEndian.PutUint32(header[dataSizeOffset:dataSizeOffset+4], uint32(payload.Len()))

	out := make([]byte, 0, wavHeaderSize+payload.Len())
	out = append(out, header...)
	out = append(out, payload.Bytes()...)
	return out, false
}

func rawConcat(frames [][]byte) []byte {
	var buf bytes.Buffer
	for _, frame := range frames {
		buf.Write(frame)
	}
	return buf.Bytes()
}

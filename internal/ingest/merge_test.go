package ingest

import (
	"bytes"
	"encoding/binary"
	"testing"
)

// wavFrame builds a self-contained PCM WAV container around payload,
// with correct size fields, mimicking what the browser recorder sends.
func wavFrame(t *testing.T, payload []byte) []byte {
	t.Helper()
	f := make([]byte, wavHeaderSize+len(payload))
	copy(f[0:4], "RIFF")
	binary.LittleEndian.PutUint32(f[4:8], uint32(36+len(payload)))
	copy(f[8:12], "WAVE")
	copy(f[12:16], "fmt ")
	binary.LittleEndian.PutUint32(f[16:20], 16)    // fmt chunk size
	binary.LittleEndian.PutUint16(f[20:22], 1)     // PCM
	binary.LittleEndian.PutUint16(f[22:24], 1)     // mono
	binary.LittleEndian.PutUint32(f[24:28], 16000) // sample rate
	binary.LittleEndian.PutUint32(f[28:32], 32000) // byte rate
	binary.LittleEndian.PutUint16(f[32:34], 2)     // block align
	binary.LittleEndian.PutUint16(f[34:36], 16)    // bits per sample
	copy(f[36:40], "data")
	binary.LittleEndian.PutUint32(f[40:44], uint32(len(payload)))
	copy(f[44:], payload)
	return f
}

func TestStitchFrames_MultipleFrames(t *testing.T) {
	p1 := []byte{1, 2, 3, 4}
	p2 := []byte{5, 6}
	p3 := []byte{7, 8, 9}
	frames := [][]byte{wavFrame(t, p1), wavFrame(t, p2), wavFrame(t, p3)}

	merged, degraded := StitchFrames(frames)
	if degraded {
		t.Fatal("expected clean merge, got degraded")
	}

	wantData := len(p1) + len(p2) + len(p3)
	if len(merged) != wavHeaderSize+wantData {
		t.Fatalf("merged length = %d, want %d", len(merged), wavHeaderSize+wantData)
	}

	if got := binary.LittleEndian.Uint32(merged[4:8]); got != uint32(36+wantData) {
		t.Errorf("RIFF chunk size = %d, want %d", got, 36+wantData)
	}
	if got := binary.LittleEndian.Uint32(merged[40:44]); got != uint32(wantData) {
		t.Errorf("data size = %d, want %d", got, wantData)
	}

	var wantPayload []byte
	wantPayload = append(wantPayload, p1...)
	wantPayload = append(wantPayload, p2...)
	wantPayload = append(wantPayload, p3...)
	if !bytes.Equal(merged[wavHeaderSize:], wantPayload) {
		t.Errorf("merged payload = %v, want %v", merged[wavHeaderSize:], wantPayload)
	}
}

func TestStitchFrames_SingleFrameUnchanged(t *testing.T) {
	frame := wavFrame(t, []byte{10, 20, 30, 40, 50, 60})

	merged, degraded := StitchFrames([][]byte{frame})
	if degraded {
		t.Fatal("expected clean merge, got degraded")
	}
	if !bytes.Equal(merged, frame) {
		t.Errorf("single-frame merge altered the frame:\ngot  %v\nwant %v", merged, frame)
	}
}

func TestStitchFrames_InvalidHeaderDegrades(t *testing.T) {
	f1 := []byte("not a wav container at all, just bytes")
	f2 := []byte("second frame")

	merged, degraded := StitchFrames([][]byte{f1, f2})
	if !degraded {
		t.Fatal("expected degraded merge for invalid first-frame header")
	}

	want := append(append([]byte{}, f1...), f2...)
	if !bytes.Equal(merged, want) {
		t.Errorf("degraded merge = %q, want raw concatenation %q", merged, want)
	}
}

func TestStitchFrames_ShortFirstFrameDegrades(t *testing.T) {
	merged, degraded := StitchFrames([][]byte{{0x52, 0x49}})
	if !degraded {
		t.Fatal("expected degraded merge for undersized first frame")
	}
	if !bytes.Equal(merged, []byte{0x52, 0x49}) {
		t.Errorf("degraded merge = %v, want the frame unchanged", merged)
	}
}

func TestStitchFrames_NoFrames(t *testing.T) {
	merged, degraded := StitchFrames(nil)
	if merged != nil || degraded {
		t.Errorf("StitchFrames(nil) = (%v, %v), want (nil, false)", merged, degraded)
	}
}

// Command audioclient streams a WAV file to the ingest WebSocket endpoint
// in per-second frames, each wrapped as its own WAV container the way a
// browser recorder delivers them. Useful for exercising the pipeline
// end to end without a browser.
package main

import (
	"encoding/binary"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/gorilla/websocket"
)

const wavHeaderSize = 44

func main() {
	var (
		addr      = flag.String("addr", "localhost:8080", "ingest service address")
		sessionID = flag.String("session", "", "session id (uuid)")
		file      = flag.String("file", "", "path to a PCM WAV file to stream")
		frames    = flag.Int("frames", 5, "number of frames to split the audio into")
	)
	flag.Parse()

	if *sessionID == "" || *file == "" {
		flag.Usage()
		os.Exit(2)
	}

	data, err := os.ReadFile(*file)
	if err != nil {
		log.Fatalf("read audio: %v", err)
	}
	if len(data) <= wavHeaderSize {
		log.Fatalf("file too small to be a WAV container")
	}
	header := data[:wavHeaderSize]
	payload := data[wavHeaderSize:]

	url := fmt.Sprintf("ws://%s/ws/audio/%s", *addr, *sessionID)
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		log.Fatalf("dial %s: %v", url, err)
	}
	defer conn.Close()

	go func() {
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			log.Printf("<- %s", msg)
		}
	}()

	chunk := len(payload) / *frames
	if chunk == 0 {
		chunk = len(payload)
	}
	for i := 0; i < len(payload); i += chunk {
		end := i + chunk
		if end > len(payload) {
			end = len(payload)
		}
		frame := wrapFrame(header, payload[i:end])
		if err := conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
			log.Fatalf("send frame: %v", err)
		}
		time.Sleep(200 * time.Millisecond)
	}

	endMsg, _ := json.Marshal(map[string]string{"type": "end"})
	if err := conn.WriteMessage(websocket.TextMessage, endMsg); err != nil {
		log.Fatalf("send end: %v", err)
	}

	// Give the server a moment to deliver the terminal message.
	time.Sleep(2 * time.Second)
}

// wrapFrame produces a self-contained WAV container for one slice of PCM,
// patching the header size fields to match the slice.
func wrapFrame(header, pcm []byte) []byte {
	frame := make([]byte, 0, wavHeaderSize+len(pcm))
	frame = append(frame, header...)
	frame = append(frame, pcm...)
	binary.LittleEndian.PutUint32(frame[4:8], uint32(36+len(pcm)))
	binary.LittleEndian.PutUint32(frame[40:44], uint32(len(pcm)))
	return frame
}

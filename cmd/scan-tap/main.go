// Command scan-tap connects to a running console's particle stream and
// prints a summary of every frame it receives.
package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"os/signal"

	"github.com/fxamacker/cbor/v2"
	"github.com/gorilla/websocket"
	"github.com/open-teleop/console/pkg/api"
)

func main() {
	url := flag.String("url", "ws://localhost:8080/ws/particles", "Particle stream URL")
	limit := flag.Int("limit", 0, "Stop after this many frames (0 = run until interrupted)")
	flag.Parse()

	conn, _, err := websocket.DefaultDialer.Dial(*url, nil)
	if err != nil {
		log.Fatalf("dial %s: %v", *url, err)
	}
	defer conn.Close()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	go func() {
		<-interrupt
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		conn.Close()
	}()

	var frames int
	for *limit == 0 || frames < *limit {
		mt, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				break
			}
			log.Fatalf("read: %v", err)
		}
		if mt != websocket.BinaryMessage {
			continue
		}

		var frame api.ParticleFrame
		if err := cbor.Unmarshal(data, &frame); err != nil {
			log.Printf("decode frame: %v", err)
			continue
		}
		frames++
		fmt.Println(summarize(frame))
	}
	fmt.Printf("summary: frames=%d\n", frames)
}

// frameSummary describes the occupied texels of a frame.
type frameSummary struct {
	Seq      uint64
	Width    int
	Height   int
	Count    int
	Written  int
	Min, Max [3]float32
}

func (s frameSummary) String() string {
	if s.Written == 0 {
		return fmt.Sprintf("frame %d: %dx%d count=%d (empty)", s.Seq, s.Width, s.Height, s.Count)
	}
	return fmt.Sprintf("frame %d: %dx%d count=%d written=%d x=[%.2f, %.2f] y=[%.2f, %.2f] z=[%.2f, %.2f]",
		s.Seq, s.Width, s.Height, s.Count, s.Written,
		s.Min[0], s.Max[0], s.Min[1], s.Max[1], s.Min[2], s.Max[2])
}

func summarize(f api.ParticleFrame) frameSummary {
	s := frameSummary{Seq: f.Seq, Width: f.Width, Height: f.Height, Count: f.Count}

	written := f.Count
	if texels := len(f.PosScale) / 4; written > texels {
		written = texels
	}
	s.Written = written
	if written == 0 {
		return s
	}

	for axis := 0; axis < 3; axis++ {
		s.Min[axis] = math.MaxFloat32
		s.Max[axis] = -math.MaxFloat32
	}
	for i := 0; i < written; i++ {
		for axis := 0; axis < 3; axis++ {
			v := f.PosScale[i*4+axis]
			if v < s.Min[axis] {
				s.Min[axis] = v
			}
			if v > s.Max[axis] {
				s.Max[axis] = v
			}
		}
	}
	return s
}

package notify

import (
	"encoding/json"
	"testing"

	"gifscreen/config"
	"gifscreen/display"
	"gifscreen/transcoder"
)

func TestVersionMessageJSON(t *testing.T) {
	snap := display.Snapshot{
		Binary:  make([]byte, transcoder.HeaderSize+2*transcoder.FrameBytes),
		Version: 7,
		Mode:    transcoder.FitModeFit,
		Frames:  2,
		DelayMs: 80,
	}
	payload, err := json.Marshal(NewVersionMessage(snap))
	if err != nil {
		t.Fatal(err)
	}
	want := `{"version":7,"frames":2,"delay_ms":80,"mode":"fit","bytes":2052}`
	if string(payload) != want {
		t.Errorf("payload = %s, want %s", payload, want)
	}
}

func TestPublishWithoutConnection(t *testing.T) {
	n := NewMQTTNotifier(config.MQTTConfig{Broker: "localhost:1883", Topic: "t"}, "test")
	if err := n.Publish(VersionMessage{Version: 1}); err == nil {
		t.Fatal("publish should fail before Connect")
	}
	n.Notify(display.Snapshot{Version: 2})

	published, failed := n.Stats()
	if published != 0 || failed != 2 {
		t.Errorf("stats = %d published, %d failed, want 0 and 2", published, failed)
	}
	n.Disconnect()
}

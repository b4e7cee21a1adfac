package game

import (
	"bytes"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"github.com/pierrec/lz4/v4"
	"github.com/vmihailenco/msgpack/v5"
)

// encodeMessage marshals a server message with msgpack and compresses the
// payload with lz4. Every server to client message goes through this path so
// clients decode uniformly.
func encodeMessage(v interface{}) ([]byte, error) {
	raw, err := msgpack.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal message: %w", err)
	}

	var buf bytes.Buffer
	zw := lz4.NewWriter(&buf)
	if _, err := zw.Write(raw); err != nil {
		return nil, fmt.Errorf("compress message: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("compress message: %w", err)
	}
	return buf.Bytes(), nil
}

// decodeMessage reverses encodeMessage; used by tests and tooling that reads
// the wire format.
func decodeMessage(data []byte, v interface{}) error {
	zr := lz4.NewReader(bytes.NewReader(data))
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(zr); err != nil {
		return fmt.Errorf("decompress message: %w", err)
	}
	if err := msgpack.Unmarshal(buf.Bytes(), v); err != nil {
		return fmt.Errorf("unmarshal message: %w", err)
	}
	return nil
}

// broadcastSnapshot sends the current replicated state to all clients. Slow
// clients get dropped snapshots rather than blocking the tick; the next
// snapshot carries the full state anyway.
func (w *World) broadcastSnapshot() {
	fingerprint := ""
	if w.starmap != nil {
		fingerprint = w.starmap.Fingerprint()
	}

	snapshot := Snapshot{
		Type:           MsgTypeSnapshot,
		Tick:           w.tick,
		Seconds:        w.secondTicker.SecondsElapsed,
		Bases:          w.store.Snapshot(),
		Drones:         w.drones.Snapshot(),
		Teams:          w.teams.Snapshot(),
		MapFingerprint: fingerprint,
		Time:           time.Now().UnixMilli(),
	}

	data, err := encodeMessage(snapshot)
	if err != nil {
		log.Printf("Error encoding snapshot: %v", err)
		return
	}

	for _, client := range w.clients {
		select {
		case client.Send <- data:
			atomic.AddInt64(&w.snapshotCount, 1)
			atomic.AddInt64(&w.totalSnapshotSize, int64(len(data)))
		default:
			// Channel full, skip this client
		}
	}
}

// broadcastMap pushes the active starmap to every connected client.
func (w *World) broadcastMap() {
	if w.starmap == nil {
		return
	}
	msg := MapMsg{
		Type:        MsgTypeMap,
		Nodes:       w.starmap.Nodes,
		Fingerprint: w.starmap.Fingerprint(),
	}
	data, err := encodeMessage(msg)
	if err != nil {
		log.Printf("Error encoding map message: %v", err)
		return
	}
	for _, client := range w.clients {
		select {
		case client.Send <- data:
		default:
			log.Printf("Could not send map to client %d", client.ID)
		}
	}
}

// GetSnapshotStats returns the current snapshot statistics
func (w *World) GetSnapshotStats() (count int64, totalSize int64) {
	return atomic.LoadInt64(&w.snapshotCount), atomic.LoadInt64(&w.totalSnapshotSize)
}

package capture

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlotLatestFrameWins(t *testing.T) {
	slot := NewSlot()

	slot.Put([]byte("frame-1"))
	slot.Put([]byte("frame-2"))
	slot.Put([]byte("frame-3"))

	select {
	case frame := <-slot.Frames():
		assert.Equal(t, "frame-3", string(frame))
	default:
		t.Fatal("slot empty after puts")
	}
}

func TestSlotPutNeverBlocks(t *testing.T) {
	slot := NewSlot()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 10000; i++ {
			slot.Put([]byte{byte(i)})
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Put blocked with no consumer")
	}
}

func TestSlotDeliversAfterConsumerCatchesUp(t *testing.T) {
	slot := NewSlot()

	slot.Put([]byte("old"))
	first := <-slot.Frames()
	require.Equal(t, "old", string(first))

	slot.Put([]byte("new"))
	second := <-slot.Frames()
	require.Equal(t, "new", string(second))
}

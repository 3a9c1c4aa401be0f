package protocol

import (
	"bytes"
	"context"
	"testing"
	"time"
)

const shortTimeout = 10 * time.Millisecond

func TestRingBufferItemCost(t *testing.T) {
	testCases := []struct {
		size int
		cost int
	}{
		{0, 8},
		{1, 12},
		{4, 12},
		{ModeMessageSize, 16},
		{18, 28}, // six text delta fields
	}
	for _, tc := range testCases {
		if got := ItemCost(tc.size); got != tc.cost {
			t.Errorf("ItemCost(%d): expected %d, got %d", tc.size, tc.cost, got)
		}
	}
}

func TestRingBufferFIFO(t *testing.T) {
	rb := NewRingBuffer(DefaultChannelCapacity)

	// 240 / 16 = 15 mode-sized messages fit
	const k = 15
	for i := 0; i < k; i++ {
		if err := rb.Send([]byte{byte(i), 0, 0, 0, 0, 0, 0, 0}, shortTimeout); err != nil {
			t.Fatalf("Send %d failed: %v", i, err)
		}
	}
	if rb.Len() != k {
		t.Errorf("Expected %d queued items, got %d", k, rb.Len())
	}

	for i := 0; i < k; i++ {
		item, err := rb.Receive(shortTimeout)
		if err != nil {
			t.Fatalf("Receive %d failed: %v", i, err)
		}
		if item.Data[0] != byte(i) {
			t.Errorf("Out of order: expected %d, got %d", i, item.Data[0])
		}
		rb.Release(item)
	}

	if rb.Free() != DefaultChannelCapacity {
		t.Errorf("Expected all capacity reclaimed, free=%d", rb.Free())
	}
}

func TestRingBufferSendBeyondCapacity(t *testing.T) {
	rb := NewRingBuffer(DefaultChannelCapacity)
	msg := make([]byte, ModeMessageSize)

	for i := 0; i < 15; i++ {
		if err := rb.Send(msg, shortTimeout); err != nil {
			t.Fatalf("Send %d failed: %v", i, err)
		}
	}

	start := time.Now()
	if err := rb.Send(msg, shortTimeout); err != ErrChannelFull {
		t.Fatalf("Expected ErrChannelFull, got %v", err)
	}
	if elapsed := time.Since(start); elapsed < shortTimeout {
		t.Errorf("Send returned after %v, before its timeout", elapsed)
	}
	if err := rb.Send(msg, 0); err != ErrChannelFull {
		t.Errorf("Expected immediate ErrChannelFull with zero timeout, got %v", err)
	}
}

func TestRingBufferSpaceHeldUntilRelease(t *testing.T) {
	rb := NewRingBuffer(32)
	msg := make([]byte, ModeMessageSize) // costs 16

	rb.Send(msg, shortTimeout)
	rb.Send(msg, shortTimeout)

	item, err := rb.Receive(shortTimeout)
	if err != nil {
		t.Fatalf("Receive failed: %v", err)
	}

	// Received but not released: still full
	if err := rb.Send(msg, shortTimeout); err != ErrChannelFull {
		t.Errorf("Expected ErrChannelFull before release, got %v", err)
	}

	rb.Release(item)
	rb.Release(item) // double release must not over-credit
	if rb.Free() != 16 {
		t.Errorf("Expected 16 bytes free, got %d", rb.Free())
	}
	if err := rb.Send(msg, shortTimeout); err != nil {
		t.Errorf("Send after release failed: %v", err)
	}
}

func TestRingBufferReleaseUnblocksSender(t *testing.T) {
	rb := NewRingBuffer(16)
	rb.Send(make([]byte, ModeMessageSize), shortTimeout)

	item, _ := rb.Receive(shortTimeout)
	go func() {
		time.Sleep(5 * time.Millisecond)
		rb.Release(item)
	}()

	if err := rb.Send(make([]byte, ModeMessageSize), time.Second); err != nil {
		t.Errorf("Blocked send should succeed after release: %v", err)
	}
}

func TestRingBufferReceiveWaitsForSend(t *testing.T) {
	rb := NewRingBuffer(DefaultChannelCapacity)

	go func() {
		time.Sleep(5 * time.Millisecond)
		rb.Send([]byte("HOLD"), shortTimeout)
	}()

	item, err := rb.Receive(time.Second)
	if err != nil {
		t.Fatalf("Receive failed: %v", err)
	}
	if string(item.Data) != "HOLD" {
		t.Errorf("Expected HOLD, got %q", item.Data)
	}
}

func TestRingBufferReceiveTimeout(t *testing.T) {
	rb := NewRingBuffer(DefaultChannelCapacity)
	item, err := rb.Receive(shortTimeout)
	if err != ErrChannelEmpty {
		t.Errorf("Expected ErrChannelEmpty, got %v", err)
	}
	if item != nil {
		t.Error("Expected nil item on timeout")
	}
}

func TestRingBufferCopyOnSend(t *testing.T) {
	rb := NewRingBuffer(DefaultChannelCapacity)
	msg := []byte("ASSIST")
	rb.Send(msg, shortTimeout)
	msg[0] = 'X'

	item, _ := rb.Receive(shortTimeout)
	if !bytes.Equal(item.Data, []byte("ASSIST")) {
		t.Errorf("Queued message changed with sender's buffer: %q", item.Data)
	}
}

func TestRingBufferItemTooLarge(t *testing.T) {
	rb := NewRingBuffer(16)
	if err := rb.Send(make([]byte, 9), time.Second); err != ErrItemTooLarge {
		t.Errorf("Expected ErrItemTooLarge, got %v", err)
	}
}

func TestRingBufferSendContextCancelled(t *testing.T) {
	rb := NewRingBuffer(16)
	msg := make([]byte, ModeMessageSize)
	if err := rb.Send(msg, 0); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(shortTimeout)
		cancel()
	}()

	start := time.Now()
	if err := rb.SendContext(ctx, msg, time.Minute); err != context.Canceled {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Cancelled send waited %v", elapsed)
	}
	if rb.Len() != 1 {
		t.Errorf("Expected the cancelled message not to be queued, have %d", rb.Len())
	}
}

func TestRingBufferReceiveContextCancelled(t *testing.T) {
	rb := NewRingBuffer(DefaultChannelCapacity)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(shortTimeout)
		cancel()
	}()

	start := time.Now()
	if _, err := rb.ReceiveContext(ctx, time.Minute); err != context.Canceled {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Cancelled receive waited %v", elapsed)
	}
}

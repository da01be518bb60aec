package pia

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dasien/sixtwooh/bus"
)

// TestKeyFIFOOrder checks §8 invariant 5: keys enqueued without intervening
// reads are dequeued in the same order.
func TestKeyFIFOOrder(t *testing.T) {
	p := New()
	p.EnqueueKey('a')
	p.EnqueueKey('b')
	p.EnqueueKey('c')

	assert.Equal(t, byte(0x01), p.Read(KeyStatus))
	assert.Equal(t, byte('a'), p.Read(KeyData))
	assert.Equal(t, byte('b'), p.Read(KeyData))
	assert.Equal(t, byte('c'), p.Read(KeyData))
	assert.Equal(t, byte(0x00), p.Read(KeyStatus))
	assert.Equal(t, byte(0x00), p.Read(KeyData))
}

func TestKeyStatusReflectsFIFO(t *testing.T) {
	p := New()
	assert.Equal(t, byte(0x00), p.Read(KeyStatus))

	p.EnqueueKey('x')
	assert.Equal(t, byte(0x01), p.Read(KeyStatus))
}

func TestFileRequestBlock(t *testing.T) {
	p := New()

	name := "HELLO"
	for i, c := range []byte(name) {
		p.Write(Base+0x02+uint16(i), c)
	}
	p.Write(AddrLo, 0x00)
	p.Write(AddrHi, 0x80)
	p.Write(Command, CmdLoad)

	filename, target, pending := p.PendingRequest()
	assert.True(t, pending)
	assert.Equal(t, name, filename)
	assert.Equal(t, uint16(0x8000), target)

	p.CompleteRequest(ResultOK)
	assert.Equal(t, byte(ResultOK)|completionBit, p.Read(Result))

	_, _, pending = p.PendingRequest()
	assert.False(t, pending)
}

func TestFileRequestErrorResult(t *testing.T) {
	p := New()
	p.Write(Command, CmdLoad)

	p.CompleteRequest(ResultNotFound)
	result := p.Read(Result)

	assert.Equal(t, byte(ResultNotFound), result&0x7F)
	assert.NotZero(t, result&completionBit)
}

// TestRegisterWindowReachableThroughBus checks that every register up to
// and including Command/Result is actually inside Base-End, so a
// memory-mapped bus.Write/bus.Read reaches the PIA instead of falling
// through to RAM (§4.3/§6's "memory-mapped registers" contract).
func TestRegisterWindowReachableThroughBus(t *testing.T) {
	p := New()
	b := bus.New()
	b.Attach(p)

	assert.LessOrEqual(t, Result, End, "Result register must fall inside the PIA's claimed window")

	b.Write(Command, CmdLoad)
	b.Write(AddrLo, 0x34)
	b.Write(AddrHi, 0x12)

	_, target, pending := p.PendingRequest()
	assert.True(t, pending, "Command write through the bus did not reach the PIA")
	assert.Equal(t, uint16(0x1234), target)

	p.CompleteRequest(ResultOK)
	assert.Equal(t, byte(ResultOK)|completionBit, b.Read(Result), "Result read through the bus did not reach the PIA")
}

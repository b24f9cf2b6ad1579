package netutil

import (
	"testing"

	"github.com/bmizerany/assert"
)

func TestPacketAppendRead(t *testing.T) {
	pkt := NewPacket()
	pkt.AppendByte(7)
	pkt.AppendBool(true)
	pkt.AppendUint16(0xbeef)
	pkt.AppendUint32(0xdeadbeef)
	pkt.AppendUint64(0xfeedfacecafebeef)
	pkt.AppendVarStr("hello")
	pkt.AppendVarBytes([]byte{1, 2, 3})

	assert.Equal(t, byte(7), pkt.ReadByte())
	assert.Equal(t, true, pkt.ReadBool())
	assert.Equal(t, uint16(0xbeef), pkt.ReadUint16())
	assert.Equal(t, uint32(0xdeadbeef), pkt.ReadUint32())
	assert.Equal(t, uint64(0xfeedfacecafebeef), pkt.ReadUint64())
	assert.Equal(t, "hello", pkt.ReadVarStr())
	assert.Equal(t, []byte{1, 2, 3}, pkt.ReadVarBytes())
	assert.T(t, !pkt.HasUnreadPayload(), "payload should be all read")
	pkt.Release()
}

func TestPacketData(t *testing.T) {
	type payload struct {
		Name  string
		Level int32
	}

	pkt := NewPacket()
	pkt.AppendData(payload{Name: "karin", Level: 42})

	var got payload
	pkt.ReadData(&got)
	assert.Equal(t, payload{Name: "karin", Level: 42}, got)
	pkt.Release()
}

// A packet handed from a recv goroutine to a service queue carries exactly one
// reference: the consumer's single Release must return it to the pool.
func TestPacketQueueHandoffRefCount(t *testing.T) {
	queue := make(chan *Packet, 1)

	pkt := NewPacket()
	assert.Equal(t, int64(1), pkt.refcount)
	queue <- pkt

	got := <-queue
	got.Release()
	assert.Equal(t, int64(0), got.refcount)
}

func TestPacketSecondOwnerRefCount(t *testing.T) {
	pkt := NewPacket()
	pkt.AddRefCount(1)
	pkt.Release()
	assert.Equal(t, int64(1), pkt.refcount)
	pkt.Release()
	assert.Equal(t, int64(0), pkt.refcount)
}

func TestPacketPoolReuse(t *testing.T) {
	pkt := NewPacket()
	pkt.AppendUint32(1234)
	pkt.Release()

	pkt2 := NewPacket()
	assert.Equal(t, uint32(0), pkt2.GetPayloadLen())
	pkt2.Release()
}

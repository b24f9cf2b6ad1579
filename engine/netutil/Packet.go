package netutil

import (
	"encoding/binary"
	"sync"
	"sync/atomic"

	"github.com/irikarra/worldlink/engine/wlog"
)

const (
	// MAX_PACKET_SIZE is the max size limit of packets in bytes
	MAX_PACKET_SIZE = 1 * 1024 * 1024
	// SIZE_FIELD_SIZE is the packet size field (uint32) size in bytes
	SIZE_FIELD_SIZE = 4
	// PREPAYLOAD_SIZE is the size of bytes before the payload
	PREPAYLOAD_SIZE = SIZE_FIELD_SIZE
	// MAX_PAYLOAD_LENGTH is the max limit of packet payload length
	MAX_PAYLOAD_LENGTH = MAX_PACKET_SIZE - PREPAYLOAD_SIZE
)

var (
	// PACKET_ENDIAN is the byte order for packet fields
	PACKET_ENDIAN = binary.LittleEndian
	// NETWORK_ENDIAN is the byte order for the size field on the wire
	NETWORK_ENDIAN = binary.LittleEndian

	packetPool = sync.Pool{
		New: func() interface{} {
			return &Packet{}
		},
	}
)

// Packet is a pooled network packet: a length-prefixed byte buffer with
// sequential append/read accessors
type Packet struct {
	refcount   int64
	payloadLen uint32
	readCursor uint32
	bytes      [MAX_PACKET_SIZE]byte
}

func allocPacket() *Packet {
	pkt := packetPool.Get().(*Packet)
	if pkt.refcount != 0 {
		wlog.Panicf("packet must be released when allocated from pool, but refcount=%d", pkt.refcount)
	}
	pkt.refcount = 1
	return pkt
}

// NewPacket allocates a new packet from the pool
func NewPacket() *Packet {
	return allocPacket()
}

// AddRefCount adds the ref count of packet
func (p *Packet) AddRefCount(add int64) {
	atomic.AddInt64(&p.refcount, add)
}

// Release releases the packet to the packet pool when ref count reaches 0
func (p *Packet) Release() {
	refcount := atomic.AddInt64(&p.refcount, -1)
	if refcount == 0 {
		p.payloadLen = 0
		p.readCursor = 0
		packetPool.Put(p)
	} else if refcount < 0 {
		wlog.Panicf("packet released too many times, refcount=%d", refcount)
	}
}

// Payload returns the total payload of packet
func (p *Packet) Payload() []byte {
	return p.bytes[PREPAYLOAD_SIZE : PREPAYLOAD_SIZE+p.payloadLen]
}

// UnreadPayload returns the unread payload
func (p *Packet) UnreadPayload() []byte {
	pos := p.readCursor + PREPAYLOAD_SIZE
	return p.bytes[pos : PREPAYLOAD_SIZE+p.payloadLen]
}

// HasUnreadPayload returns if all payload is read
func (p *Packet) HasUnreadPayload() bool {
	return p.readCursor < p.payloadLen
}

// GetPayloadLen returns the payload length
func (p *Packet) GetPayloadLen() uint32 {
	return p.payloadLen
}

// SetPayloadLen sets the payload length
func (p *Packet) SetPayloadLen(plen uint32) {
	if plen > MAX_PAYLOAD_LENGTH {
		wlog.Panicf("payload length too long: %d", plen)
	}
	p.payloadLen = plen
}

func (p *Packet) prepareSend() {
	NETWORK_ENDIAN.PutUint32(p.bytes[:SIZE_FIELD_SIZE], p.payloadLen)
}

// AppendByte appends one byte to the end of payload
func (p *Packet) AppendByte(b byte) {
	p.bytes[PREPAYLOAD_SIZE+p.payloadLen] = b
	p.payloadLen += 1
}

// ReadByte reads one byte from the beginning of unread payload
func (p *Packet) ReadByte() (v byte) {
	pos := p.readCursor + PREPAYLOAD_SIZE
	v = p.bytes[pos]
	p.readCursor += 1
	return
}

// AppendBool appends a bool to the end of payload
func (p *Packet) AppendBool(b bool) {
	if b {
		p.AppendByte(1)
	} else {
		p.AppendByte(0)
	}
}

// ReadBool reads a bool from the beginning of unread payload
func (p *Packet) ReadBool() (v bool) {
	return p.ReadByte() != 0
}

// AppendUint16 appends a uint16 to the end of payload
func (p *Packet) AppendUint16(v uint16) {
	payloadEnd := PREPAYLOAD_SIZE + p.payloadLen
	PACKET_ENDIAN.PutUint16(p.bytes[payloadEnd:payloadEnd+2], v)
	p.payloadLen += 2
}

// AppendUint32 appends a uint32 to the end of payload
func (p *Packet) AppendUint32(v uint32) {
	payloadEnd := PREPAYLOAD_SIZE + p.payloadLen
	PACKET_ENDIAN.PutUint32(p.bytes[payloadEnd:payloadEnd+4], v)
	p.payloadLen += 4
}

// AppendUint64 appends a uint64 to the end of payload
func (p *Packet) AppendUint64(v uint64) {
	payloadEnd := PREPAYLOAD_SIZE + p.payloadLen
	PACKET_ENDIAN.PutUint64(p.bytes[payloadEnd:payloadEnd+8], v)
	p.payloadLen += 8
}

// AppendBytes appends slice of bytes to the end of payload
func (p *Packet) AppendBytes(v []byte) {
	payloadEnd := PREPAYLOAD_SIZE + p.payloadLen
	bytesLen := uint32(len(v))
	copy(p.bytes[payloadEnd:payloadEnd+bytesLen], v)
	p.payloadLen += bytesLen
}

// AppendVarStr appends a varsize string to the end of payload
func (p *Packet) AppendVarStr(s string) {
	p.AppendVarBytes([]byte(s))
}

// AppendVarBytes appends varsize bytes to the end of payload
func (p *Packet) AppendVarBytes(v []byte) {
	p.AppendUint32(uint32(len(v)))
	p.AppendBytes(v)
}

// ReadUint16 reads a uint16 from the beginning of unread payload
func (p *Packet) ReadUint16() (v uint16) {
	pos := p.readCursor + PREPAYLOAD_SIZE
	v = PACKET_ENDIAN.Uint16(p.bytes[pos : pos+2])
	p.readCursor += 2
	return
}

// ReadUint32 reads a uint32 from the beginning of unread payload
func (p *Packet) ReadUint32() (v uint32) {
	pos := p.readCursor + PREPAYLOAD_SIZE
	v = PACKET_ENDIAN.Uint32(p.bytes[pos : pos+4])
	p.readCursor += 4
	return
}

// ReadUint64 reads a uint64 from the beginning of unread payload
func (p *Packet) ReadUint64() (v uint64) {
	pos := p.readCursor + PREPAYLOAD_SIZE
	v = PACKET_ENDIAN.Uint64(p.bytes[pos : pos+8])
	p.readCursor += 8
	return
}

// ReadBytes reads bytes of the specified size from the beginning of unread payload
func (p *Packet) ReadBytes(size uint32) []byte {
	pos := p.readCursor + PREPAYLOAD_SIZE
	if pos > PREPAYLOAD_SIZE+p.payloadLen || pos+size > PREPAYLOAD_SIZE+p.payloadLen {
		wlog.Panicf("Packet %p bytes is %d, but reading %d+%d", p, p.payloadLen, p.readCursor, size)
	}
	bytes := p.bytes[pos : pos+size]
	p.readCursor += size
	return bytes
}

// ReadVarStr reads a varsize string from the beginning of unread payload
func (p *Packet) ReadVarStr() string {
	b := p.ReadVarBytes()
	return string(b)
}

// ReadVarBytes reads a varsize slice of bytes from the beginning of unread payload
func (p *Packet) ReadVarBytes() []byte {
	blen := p.ReadUint32()
	return p.ReadBytes(blen)
}

// AppendData appends a msgpack-encoded data to the end of payload
func (p *Packet) AppendData(msg interface{}) {
	dataBuf := make([]byte, 0, 128)
	dataBuf, err := MSG_PACKER.PackMsg(msg, dataBuf)
	if err != nil {
		wlog.Panicf("pack msg failed: %v", err)
	}

	p.AppendVarBytes(dataBuf)
}

// ReadData reads a msgpack-encoded data from the beginning of unread payload
func (p *Packet) ReadData(msg interface{}) {
	b := p.ReadVarBytes()
	err := MSG_PACKER.UnpackMsg(b, msg)
	if err != nil {
		wlog.Panicf("unpack msg failed: %v", err)
	}
}

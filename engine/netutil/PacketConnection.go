package netutil

import (
	"fmt"
	"net"

	"github.com/irikarra/worldlink/engine/consts"
	"github.com/irikarra/worldlink/engine/wlog"
)

// PacketConnection sends and receives length-prefixed packets on a Connection
type PacketConnection struct {
	conn Connection
}

// NewPacketConnection creates a packet connection based on the connection
func NewPacketConnection(conn Connection) *PacketConnection {
	return &PacketConnection{
		conn: conn,
	}
}

// NewPacket allocates a new packet
func (pc *PacketConnection) NewPacket() *Packet {
	return allocPacket()
}

// SendPacket sends a packet to the connection
func (pc *PacketConnection) SendPacket(packet *Packet) error {
	if consts.DEBUG_PACKETS {
		wlog.Debugf("%s SEND PACKET: %v", pc, packet.bytes[:PREPAYLOAD_SIZE+packet.GetPayloadLen()])
	}
	packet.prepareSend()
	return SendAll(pc.conn, packet.bytes[:PREPAYLOAD_SIZE+packet.GetPayloadLen()])
}

// SendPacketRelease sends a packet and releases it
func (pc *PacketConnection) SendPacketRelease(packet *Packet) error {
	err := pc.SendPacket(packet)
	packet.Release()
	if err == nil {
		err = pc.Flush()
	}
	return err
}

// Flush flushes the underlying buffered connection
func (pc *PacketConnection) Flush() error {
	return pc.conn.Flush()
}

// RecvPacket receives the next packet from the connection
func (pc *PacketConnection) RecvPacket() (*Packet, error) {
	packet := allocPacket()

	payloadLenBuf := packet.bytes[:SIZE_FIELD_SIZE]
	err := RecvAll(pc.conn, payloadLenBuf)
	if err != nil {
		packet.Release()
		return nil, err
	}

	payloadLen := NETWORK_ENDIAN.Uint32(payloadLenBuf)
	if payloadLen > MAX_PAYLOAD_LENGTH {
		packet.Release()
		return nil, fmt.Errorf("packet payload too large: %v", payloadLen)
	}

	err = RecvAll(pc.conn, packet.bytes[PREPAYLOAD_SIZE:PREPAYLOAD_SIZE+payloadLen])
	if err != nil {
		packet.Release()
		return nil, err
	}

	packet.SetPayloadLen(payloadLen)
	return packet, nil
}

// Close closes the connection
func (pc *PacketConnection) Close() error {
	return pc.conn.Close()
}

// RemoteAddr returns the remote address
func (pc *PacketConnection) RemoteAddr() net.Addr {
	return pc.conn.RemoteAddr()
}

// LocalAddr returns the local address
func (pc *PacketConnection) LocalAddr() net.Addr {
	return pc.conn.LocalAddr()
}

func (pc *PacketConnection) String() string {
	return fmt.Sprintf("[%s >>> %s]", pc.LocalAddr(), pc.RemoteAddr())
}

package netutil

import (
	"bytes"

	"github.com/vmihailenco/msgpack"
)

var (
	// MSG_PACKER is the packer for packing and unpacking packet data
	MSG_PACKER MsgPacker = MessagePackMsgPacker{}
)

// MsgPacker is the interface for msg packer
type MsgPacker interface {
	PackMsg(msg interface{}, buf []byte) ([]byte, error)
	UnpackMsg(data []byte, msg interface{}) error
}

// MessagePackMsgPacker packs and unpacks msgs in MessagePack format
type MessagePackMsgPacker struct{}

// PackMsg packs the msg to bytes in MessagePack format
func (mp MessagePackMsgPacker) PackMsg(msg interface{}, buf []byte) ([]byte, error) {
	buffer := bytes.NewBuffer(buf)

	encoder := msgpack.NewEncoder(buffer)
	err := encoder.Encode(msg)
	if err != nil {
		return buf, err
	}
	buf = buffer.Bytes()
	return buf, nil
}

// UnpackMsg unpacks bytes in MessagePack format to the msg
func (mp MessagePackMsgPacker) UnpackMsg(data []byte, msg interface{}) error {
	return msgpack.Unmarshal(data, msg)
}

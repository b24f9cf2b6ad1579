package netutil

import (
	"fmt"
	"io"
	"net"
)

// IsTemporaryNetError checks if the error is a temporary network error
func IsTemporaryNetError(err error) bool {
	if err == nil {
		return false
	}

	netErr, ok := err.(net.Error)
	if !ok {
		return false
	}
	return netErr.Temporary() || netErr.Timeout()
}

// IsConnectionError check if the error is a connection error (close)
func IsConnectionError(_err interface{}) bool {
	err, ok := _err.(error)
	if !ok {
		return false
	}

	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return true
	}

	neterr, ok := err.(net.Error)
	if !ok {
		return false
	}
	if neterr.Temporary() || neterr.Timeout() {
		return false
	}

	return true
}

// ConnectTCP connects to the server at host:port
func ConnectTCP(host string, port int) (net.Conn, error) {
	addr := fmt.Sprintf("%s:%d", host, port)
	conn, err := net.Dial("tcp", addr)
	return conn, err
}

// RecvAll receives from the reader until the buffer is filled
func RecvAll(conn io.Reader, buf []byte) error {
	for len(buf) > 0 {
		n, err := conn.Read(buf)
		if err != nil {
			if IsTemporaryNetError(err) {
				continue
			}

			return err
		}
		buf = buf[n:]
	}
	return nil
}

// SendAll sends to the writer until all data is sent
func SendAll(conn io.Writer, data []byte) error {
	for len(data) > 0 {
		n, err := conn.Write(data)
		if err != nil {
			if IsTemporaryNetError(err) {
				continue
			}

			return err
		}
		data = data[n:]
	}
	return nil
}

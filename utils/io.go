package utils

import (
	"encoding/binary"
	"io"
)

func ReadByte(reader io.Reader) (byte, error) {
	var buf [1]byte
	if _, err := io.ReadFull(reader, buf[:]); err != nil {
		return 0, err
	}
	return buf[0], nil
}

func ReadUint16LE(reader io.Reader) (uint16, error) {
	var buf [2]byte
	if _, err := io.ReadFull(reader, buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(buf[:]), nil
}

package cache

import (
	"encoding/binary"
	"fmt"
	"io"
)

func writeUint16(w io.Writer, v uint16) error {
	return binary.Write(w, binary.LittleEndian, v)
}

func writeUint64(w io.Writer, v uint64) error {
	return binary.Write(w, binary.LittleEndian, v)
}

func readUint16(r io.Reader) (uint16, error) {
	var v uint16
	if err := binary.Read(r, binary.LittleEndian, &v); err != nil {
		return 0, fmt.Errorf("cache: read uint16: %w", err)
	}
	return v, nil
}

func readUint64(r io.Reader) (uint64, error) {
	var v uint64
	if err := binary.Read(r, binary.LittleEndian, &v); err != nil {
		return 0, fmt.Errorf("cache: read uint64: %w", err)
	}
	return v, nil
}

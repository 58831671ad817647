package grf

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"fmt"
	"io"
	"strings"

	"github.com/Faultbox/terrainmap/pkg/encoding"
)

// File is a single file to be packed by Write.
type File struct {
	Name string
	Data []byte
}

// Write packs files into a version 0x200 GRF archive. Names are stored
// EUC-KR encoded with backslash separators.
func Write(w io.Writer, files []File) error {
	var body bytes.Buffer
	var table bytes.Buffer

	for _, f := range files {
		compressed, err := deflate(f.Data)
		if err != nil {
			return fmt.Errorf("compressing %s: %w", f.Name, err)
		}
		aligned := len(compressed)
		if aligned%8 != 0 {
			aligned += 8 - aligned%8
		}

		name := strings.ReplaceAll(f.Name, "/", "\\")
		table.Write(encoding.UTF8ToEUCKR(name))
		table.WriteByte(0)

		var rec [entrySize]byte
		binary.LittleEndian.PutUint32(rec[0:], uint32(len(compressed)))
		binary.LittleEndian.PutUint32(rec[4:], uint32(aligned))
		binary.LittleEndian.PutUint32(rec[8:], uint32(len(f.Data)))
		rec[12] = flagFile
		binary.LittleEndian.PutUint32(rec[13:], uint32(body.Len()))
		table.Write(rec[:])

		body.Write(compressed)
		body.Write(make([]byte, aligned-len(compressed)))
	}

	compressedTable, err := deflate(table.Bytes())
	if err != nil {
		return fmt.Errorf("compressing file table: %w", err)
	}

	header := Header{
		TableOffset: uint32(body.Len()),
		FileCount:   uint32(len(files)) + 7,
		Version:     version200,
	}
	copy(header.Magic[:], grfMagic)

	if err := binary.Write(w, binary.LittleEndian, &header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	if _, err := w.Write(body.Bytes()); err != nil {
		return fmt.Errorf("writing file data: %w", err)
	}
	sizes := []uint32{uint32(len(compressedTable)), uint32(table.Len())}
	if err := binary.Write(w, binary.LittleEndian, sizes); err != nil {
		return fmt.Errorf("writing table sizes: %w", err)
	}
	if _, err := w.Write(compressedTable); err != nil {
		return fmt.Errorf("writing file table: %w", err)
	}
	return nil
}

func deflate(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	if _, err := zw.Write(data); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

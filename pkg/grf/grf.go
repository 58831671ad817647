// Package grf provides reading functionality for Ragnarok Online GRF archives.
package grf

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/Faultbox/terrainmap/pkg/encoding"
)

const (
	grfMagic   = "Master of Magic"
	headerSize = 46
	entrySize  = 17
	version200 = 0x200

	flagFile      = 0x01
	flagEncrypted = 0x02
)

// Archive errors.
var (
	ErrInvalidMagic       = errors.New("invalid GRF magic")
	ErrUnsupportedVersion = errors.New("unsupported GRF version")
	ErrNotFound           = errors.New("file not found in archive")
	ErrEncrypted          = errors.New("encrypted GRF entries are not supported")
)

// Header contains GRF file header information.
type Header struct {
	Magic         [15]byte
	EncryptionKey [15]byte
	TableOffset   uint32
	Seed          uint32
	FileCount     uint32
	Version       uint32
}

// Entry represents a file entry in the archive.
type Entry struct {
	Name             string
	CompressedSize   uint32
	AlignedSize      uint32
	UncompressedSize uint32
	Flags            uint8
	Offset           uint32
}

// Archive is an opened GRF archive. Reads go through io.ReaderAt, so an
// Archive is safe for concurrent use.
type Archive struct {
	r      io.ReaderAt
	closer io.Closer
	header Header
	files  map[string]*Entry
}

// Open opens a GRF archive from disk.
func Open(path string) (*Archive, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}

	a, err := NewArchive(file)
	if err != nil {
		file.Close()
		return nil, err
	}
	a.closer = file
	return a, nil
}

// NewArchive reads the header and file table from r.
func NewArchive(r io.ReaderAt) (*Archive, error) {
	a := &Archive{
		r:     r,
		files: make(map[string]*Entry),
	}
	if err := a.readHeader(); err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	if err := a.readFileTable(); err != nil {
		return nil, fmt.Errorf("reading file table: %w", err)
	}
	return a, nil
}

// Close closes the underlying file, if the archive owns one.
func (a *Archive) Close() error {
	if a.closer != nil {
		return a.closer.Close()
	}
	return nil
}

func (a *Archive) readHeader() error {
	sr := io.NewSectionReader(a.r, 0, headerSize)
	if err := binary.Read(sr, binary.LittleEndian, &a.header); err != nil {
		return err
	}
	if string(a.header.Magic[:]) != grfMagic {
		return ErrInvalidMagic
	}
	if a.header.Version != version200 {
		return fmt.Errorf("%w: 0x%x", ErrUnsupportedVersion, a.header.Version)
	}
	return nil
}

func (a *Archive) readFileTable() error {
	tableOffset := int64(a.header.TableOffset) + headerSize

	var sizes [8]byte
	if _, err := a.r.ReadAt(sizes[:], tableOffset); err != nil {
		return fmt.Errorf("reading table sizes: %w", err)
	}
	compressedSize := binary.LittleEndian.Uint32(sizes[0:])
	uncompressedSize := binary.LittleEndian.Uint32(sizes[4:])

	compressed := make([]byte, compressedSize)
	if _, err := a.r.ReadAt(compressed, tableOffset+8); err != nil {
		return fmt.Errorf("reading table: %w", err)
	}
	table, err := inflate(compressed, uncompressedSize)
	if err != nil {
		return fmt.Errorf("inflating table: %w", err)
	}

	fileCount := int64(a.header.FileCount) - int64(a.header.Seed) - 7
	offset := 0
	for i := int64(0); i < fileCount; i++ {
		nameEnd := bytes.IndexByte(table[offset:], 0)
		if nameEnd < 0 {
			break
		}
		rawName := table[offset : offset+nameEnd]
		offset += nameEnd + 1

		if offset+entrySize > len(table) {
			break
		}
		entry := &Entry{
			Name:             normalizePath(encoding.EUCKRToUTF8(rawName)),
			CompressedSize:   binary.LittleEndian.Uint32(table[offset:]),
			AlignedSize:      binary.LittleEndian.Uint32(table[offset+4:]),
			UncompressedSize: binary.LittleEndian.Uint32(table[offset+8:]),
			Flags:            table[offset+12],
			Offset:           binary.LittleEndian.Uint32(table[offset+13:]),
		}
		offset += entrySize

		if entry.Flags&flagFile != 0 {
			a.files[entry.Name] = entry
		}
	}
	return nil
}

// Version returns the archive format version.
func (a *Archive) Version() uint32 {
	return a.header.Version
}

// Len returns the number of files in the archive.
func (a *Archive) Len() int {
	return len(a.files)
}

// List returns all file paths in the archive, sorted.
func (a *Archive) List() []string {
	result := make([]string, 0, len(a.files))
	for path := range a.files {
		result = append(result, path)
	}
	sort.Strings(result)
	return result
}

// Stat returns the entry for path.
func (a *Archive) Stat(path string) (*Entry, bool) {
	e, ok := a.files[normalizePath(path)]
	return e, ok
}

// Contains checks if a file exists.
func (a *Archive) Contains(path string) bool {
	_, ok := a.files[normalizePath(path)]
	return ok
}

// Read reads and decompresses a file from the archive.
func (a *Archive) Read(path string) ([]byte, error) {
	entry, ok := a.files[normalizePath(path)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if entry.Flags&flagEncrypted != 0 {
		return nil, fmt.Errorf("%w: %s", ErrEncrypted, path)
	}

	raw := make([]byte, entry.CompressedSize)
	if _, err := a.r.ReadAt(raw, int64(entry.Offset)+headerSize); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if entry.CompressedSize == entry.UncompressedSize {
		return raw, nil
	}

	data, err := inflate(raw, entry.UncompressedSize)
	if err != nil {
		return nil, fmt.Errorf("inflating %s: %w", path, err)
	}
	return data, nil
}

func inflate(compressed []byte, size uint32) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	out := make([]byte, size)
	if _, err := io.ReadFull(zr, out); err != nil {
		return nil, err
	}
	return out, nil
}

func normalizePath(path string) string {
	return encoding.NormalizeGRFPath(path)
}

// Package archive bundles named, precompiled scanners into one file.
//
// An archive is a small header followed by an XDR payload listing the
// entries. The payload is LZ4 block compressed when that makes it smaller.
package archive

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/calmh/xdr"
	"github.com/pierrec/lz4/v4"

	"github.com/dlclark/regscan"
)

const (
	magic   = 0x72736361 // "rsca"
	version = 1

	flagCompressed = 1 << 0

	headerSize = 4 * 4

	maxEntries    = 1 << 16
	maxNameLen    = 1 << 10
	maxPatternLen = 1 << 16
	maxScannerLen = 1 << 30
	maxPayload    = 1 << 30
)

var (
	// ErrFormat is returned when an archive cannot be decoded.
	ErrFormat = errors.New("archive: malformed archive")

	errNotCompressible = errors.New("not compressible")
)

// Entry is one named scanner. Pattern and Options record what the scanner
// was compiled from; they are informational only.
type Entry struct {
	Name    string
	Pattern string
	Options regscan.Options
	Scanner regscan.BaseScanner
}

// NewEntry compiles pattern into a scanner of layout v.
func NewEntry(name, pattern string, opt regscan.Options, v regscan.Variant) (Entry, error) {
	s, err := regscan.CompileAs(pattern, opt, v)
	if err != nil {
		return Entry{}, err
	}
	return Entry{Name: name, Pattern: pattern, Options: opt, Scanner: s}, nil
}

type entries struct {
	list  []Entry
	saved [][]byte
}

func (e *entries) XDRSize() int {
	size := 4
	for i, en := range e.list {
		size += 4 + len(en.Name) + xdr.Padding(len(en.Name)) +
			4 + len(en.Pattern) + xdr.Padding(len(en.Pattern)) +
			4 +
			4 + len(e.saved[i]) + xdr.Padding(len(e.saved[i]))
	}
	return size
}

func (e *entries) MarshalXDRInto(m *xdr.Marshaller) error {
	m.MarshalUint32(uint32(len(e.list)))
	for i, en := range e.list {
		m.MarshalString(en.Name)
		m.MarshalString(en.Pattern)
		m.MarshalUint32(uint32(en.Options))
		m.MarshalBytes(e.saved[i])
	}
	return m.Error
}

func (e *entries) UnmarshalXDRFrom(u *xdr.Unmarshaller) error {
	n := int(u.UnmarshalUint32())
	if u.Error != nil {
		return u.Error
	}
	if n > maxEntries {
		return xdr.ElementSizeExceeded("entries", n, maxEntries)
	}
	e.list = make([]Entry, 0, n)
	for i := 0; i < n; i++ {
		var en Entry
		en.Name = u.UnmarshalStringMax(maxNameLen)
		en.Pattern = u.UnmarshalStringMax(maxPatternLen)
		en.Options = regscan.Options(u.UnmarshalUint32())
		saved := u.UnmarshalBytesMax(maxScannerLen)
		if u.Error != nil {
			return u.Error
		}
		s, err := regscan.Load(saved)
		if err != nil {
			return fmt.Errorf("entry %q: %w", en.Name, err)
		}
		en.Scanner = s
		e.list = append(e.list, en)
	}
	return u.Error
}

// Write encodes entries to w. Entry names must be unique and every entry
// needs a scanner.
func Write(w io.Writer, list []Entry) error {
	e := &entries{list: list, saved: make([][]byte, len(list))}
	seen := make(map[string]bool, len(list))
	for i, en := range list {
		if en.Scanner == nil {
			return fmt.Errorf("entry %q has no scanner", en.Name)
		}
		if seen[en.Name] {
			return fmt.Errorf("duplicate entry %q", en.Name)
		}
		seen[en.Name] = true
		e.saved[i] = en.Scanner.Save()
	}

	payload := make([]byte, e.XDRSize())
	if err := e.MarshalXDRInto(&xdr.Marshaller{Data: payload}); err != nil {
		return err
	}

	var flags uint32
	buf := make([]byte, 4+lz4.CompressBlockBound(len(payload)))
	if n, err := lz4Compress(payload, buf); err == nil && n < len(payload) {
		l.Debugf("compressed %d entries: %d -> %d bytes", len(list), len(payload), n)
		payload = buf[:n]
		flags |= flagCompressed
	} else {
		l.Debugf("storing %d entries uncompressed (%d bytes)", len(list), len(payload))
	}

	return writePayload(w, flags, payload)
}

func writePayload(w io.Writer, flags uint32, payload []byte) error {
	hdr := make([]byte, headerSize)
	m := &xdr.Marshaller{Data: hdr}
	m.MarshalUint32(magic)
	m.MarshalUint32(version)
	m.MarshalUint32(flags)
	m.MarshalUint32(uint32(len(payload)))
	if m.Error != nil {
		return m.Error
	}
	if _, err := w.Write(hdr); err != nil {
		return err
	}
	_, err := w.Write(payload)
	return err
}

// Read decodes an archive written by Write.
func Read(r io.Reader) ([]Entry, error) {
	hdr := make([]byte, headerSize)
	if _, err := io.ReadFull(r, hdr); err != nil {
		return nil, fmt.Errorf("%w: header: %v", ErrFormat, err)
	}
	u := &xdr.Unmarshaller{Data: hdr}
	if got := u.UnmarshalUint32(); got != magic {
		return nil, fmt.Errorf("%w: bad magic %#x", ErrFormat, got)
	}
	if got := u.UnmarshalUint32(); got != version {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrFormat, got)
	}
	flags := u.UnmarshalUint32()
	size := int64(u.UnmarshalUint32())
	if size > maxPayload {
		return nil, fmt.Errorf("%w: %v", ErrFormat, xdr.ElementSizeExceeded("payload", int(size), maxPayload))
	}

	payload := make([]byte, size)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, fmt.Errorf("%w: payload: %v", ErrFormat, err)
	}
	if flags&flagCompressed != 0 {
		var err error
		if payload, err = lz4Decompress(payload); err != nil {
			return nil, fmt.Errorf("%w: decompress: %v", ErrFormat, err)
		}
	}

	e := &entries{}
	if err := e.UnmarshalXDRFrom(&xdr.Unmarshaller{Data: payload}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFormat, err)
	}
	l.Debugf("read %d entries", len(e.list))
	return e.list, nil
}

// Lookup returns the entry called name.
func Lookup(list []Entry, name string) (Entry, bool) {
	for _, en := range list {
		if en.Name == name {
			return en, true
		}
	}
	return Entry{}, false
}

func lz4Compress(src, buf []byte) (int, error) {
	n, err := lz4.CompressBlock(src, buf[4:], nil)
	if err != nil {
		return -1, err
	} else if n == 0 {
		return -1, errNotCompressible
	}

	// The compressed block is prefixed by the size of the uncompressed data.
	binary.BigEndian.PutUint32(buf, uint32(len(src)))

	return n + 4, nil
}

func lz4Decompress(src []byte) ([]byte, error) {
	if len(src) < 4 {
		return nil, io.ErrUnexpectedEOF
	}
	size := binary.BigEndian.Uint32(src)
	if size > maxPayload {
		return nil, xdr.ElementSizeExceeded("uncompressed payload", int(size), maxPayload)
	}
	buf := make([]byte, size)

	n, err := lz4.UncompressBlock(src[4:], buf)
	if err != nil {
		return nil, err
	}

	return buf[:n], nil
}

package regscan

import (
	"fmt"
	"hash/crc32"

	"github.com/calmh/xdr"
)

const (
	tableMagic   = 0x72736e31 // "rsn1"
	tableVersion = 1

	headerSize  = 7 * 4
	lettersSize = 256
	trailerSize = 4

	// bounds on what a loaded table may claim, to refuse absurd allocations
	maxTableStates = 1 << 24
	maxTableCells  = 1 << 28
)

// Serialized layout, all XDR (big endian, 4-byte aligned):
//
//	magic, version, variant, classes, states, initial row, dead row  uint32
//	letter classes, four per word                                   64 x uint32
//	accept bitset                                                   ceil(states/64) x uint64
//	transitions                                                     states*classes x uint32
//	masked layouts only:
//	  initial mask                                                  uint64
//	  transition masks                                              states*classes x uint64
//	  state outputs                                                 states x uint64
//	CRC-32 (IEEE) of everything above                               uint32

func (t *table) XDRSize() int {
	n, cells := int(t.states), int(t.states)*int(t.classes)
	size := headerSize + lettersSize + 8*((n+63)/64) + 4*cells
	if t.variant.Masked() {
		size += 8 + 8*cells + 8*n
	}
	return size + trailerSize
}

func (t *table) MarshalXDRInto(m *xdr.Marshaller) error {
	m.MarshalUint32(tableMagic)
	m.MarshalUint32(tableVersion)
	m.MarshalUint32(uint32(t.variant))
	m.MarshalUint32(t.classes)
	m.MarshalUint32(t.states)
	m.MarshalUint32(t.initial)
	m.MarshalUint32(t.dead)
	for i := 0; i < 256; i += 4 {
		m.MarshalUint32(uint32(t.letters[i])<<24 | uint32(t.letters[i+1])<<16 | uint32(t.letters[i+2])<<8 | uint32(t.letters[i+3]))
	}
	for _, w := range t.accept {
		m.MarshalUint64(w)
	}
	for _, tr := range t.trans {
		m.MarshalUint32(tr)
	}
	if t.variant.Masked() {
		m.MarshalUint64(t.initMask)
		for _, mask := range t.masks {
			m.MarshalUint64(mask)
		}
		for _, out := range t.outputs {
			m.MarshalUint64(out)
		}
	}
	return m.Error
}

func (t *table) UnmarshalXDRFrom(u *xdr.Unmarshaller) error {
	if magic := u.UnmarshalUint32(); magic != tableMagic {
		return fmt.Errorf("bad magic %#x", magic)
	}
	if version := u.UnmarshalUint32(); version != tableVersion {
		return fmt.Errorf("unsupported version %d", version)
	}
	t.variant = Variant(u.UnmarshalUint32())
	t.classes = u.UnmarshalUint32()
	t.states = u.UnmarshalUint32()
	t.initial = u.UnmarshalUint32()
	t.dead = u.UnmarshalUint32()
	if u.Error != nil {
		return u.Error
	}
	if !t.variant.valid() {
		return fmt.Errorf("unknown variant %d", uint32(t.variant))
	}
	if t.classes == 0 || t.classes > 256 {
		return fmt.Errorf("bad letter count %d", t.classes)
	}
	if t.states == 0 || t.states > maxTableStates {
		return xdr.ElementSizeExceeded("states", int(t.states), maxTableStates)
	}
	cells := int(t.states) * int(t.classes)
	if cells > maxTableCells {
		return xdr.ElementSizeExceeded("transitions", cells, maxTableCells)
	}

	for i := 0; i < 256; i += 4 {
		w := u.UnmarshalUint32()
		t.letters[i], t.letters[i+1], t.letters[i+2], t.letters[i+3] = uint8(w>>24), uint8(w>>16), uint8(w>>8), uint8(w)
	}
	t.accept = make([]uint64, (t.states+63)/64)
	for i := range t.accept {
		t.accept[i] = u.UnmarshalUint64()
	}
	t.trans = make([]uint32, cells)
	for i := range t.trans {
		t.trans[i] = u.UnmarshalUint32()
	}
	if t.variant.Masked() {
		t.initMask = u.UnmarshalUint64()
		t.masks = make([]uint64, cells)
		for i := range t.masks {
			t.masks[i] = u.UnmarshalUint64()
		}
		t.outputs = make([]uint64, t.states)
		for i := range t.outputs {
			t.outputs[i] = u.UnmarshalUint64()
		}
	}
	if u.Error != nil {
		return u.Error
	}
	return t.validate()
}

// validate checks that every index in a decoded table stays inside it.
func (t *table) validate() error {
	k := t.classes
	rows := t.states * k
	for c, l := range t.letters {
		if uint32(l) >= k {
			return fmt.Errorf("byte %#x maps to letter %d of %d", c, l, k)
		}
	}
	validRow := func(pos uint32) bool {
		return pos < rows && pos%k == 0
	}
	if !validRow(t.initial) {
		return fmt.Errorf("bad initial row %d", t.initial)
	}
	if t.dead != noDead && !validRow(t.dead) {
		return fmt.Errorf("bad dead row %d", t.dead)
	}
	for i, tr := range t.trans {
		dest := tr
		if t.variant.Relocatable() {
			row := uint32(i) - uint32(i)%k
			dest = row + tr
		}
		if !validRow(dest) {
			return fmt.Errorf("transition %d leads to row %d", i, dest)
		}
	}
	return nil
}

func marshalTable(t *table) []byte {
	size := t.XDRSize()
	buf := make([]byte, size)
	m := &xdr.Marshaller{Data: buf[:size-trailerSize]}
	if err := t.MarshalXDRInto(m); err != nil {
		// the buffer is sized by XDRSize, so this is a layout bug
		panic("regscan: marshal table: " + err.Error())
	}
	tail := &xdr.Marshaller{Data: buf[size-trailerSize:]}
	tail.MarshalUint32(crc32.ChecksumIEEE(buf[:size-trailerSize]))
	return buf
}

// peekVariant reads the variant tag of a serialized table.
func peekVariant(data []byte) (Variant, error) {
	if len(data) < headerSize {
		return 0, fmt.Errorf("%w: %d bytes is too short", ErrFormat, len(data))
	}
	u := &xdr.Unmarshaller{Data: data[8:12]}
	return Variant(u.UnmarshalUint32()), nil
}

// unmarshalTable decodes a table saved by marshalTable, which must have been
// written for variant want.
func unmarshalTable(data []byte, want Variant) (*table, error) {
	if len(data) < headerSize+trailerSize {
		return nil, fmt.Errorf("%w: %d bytes is too short", ErrFormat, len(data))
	}
	body, tail := data[:len(data)-trailerSize], data[len(data)-trailerSize:]
	if got := (&xdr.Unmarshaller{Data: tail}).UnmarshalUint32(); got != crc32.ChecksumIEEE(body) {
		return nil, fmt.Errorf("%w: checksum mismatch", ErrFormat)
	}
	if v, _ := peekVariant(data); v != want {
		return nil, fmt.Errorf("%w: buffer holds a %v, not a %v", ErrFormat, v, want)
	}

	t := &table{}
	u := &xdr.Unmarshaller{Data: body}
	if err := t.UnmarshalXDRFrom(u); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFormat, err)
	}
	if len(data) != t.XDRSize() {
		return nil, fmt.Errorf("%w: %d bytes, layout needs %d", ErrFormat, len(data), t.XDRSize())
	}
	return t, nil
}

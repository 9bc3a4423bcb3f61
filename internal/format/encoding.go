package format

import "encoding/binary"

// Words are stored little-endian regardless of host order so an arena dump
// reads the same on every platform.

// ReadWord reads the word at off.
func ReadWord(b []byte, off int) Word {
	return Word(binary.LittleEndian.Uint64(b[off : off+WordSize]))
}

// PutWord writes w at off.
func PutWord(b []byte, off int, w Word) {
	binary.LittleEndian.PutUint64(b[off:off+WordSize], uint64(w))
}

// ReadLink reads a free-list link stored at off. Links are arena offsets of
// block headers; zero means "none" because offset zero is the prologue.
func ReadLink(b []byte, off int) int {
	return int(binary.LittleEndian.Uint64(b[off : off+WordSize]))
}

// PutLink stores a free-list link at off.
func PutLink(b []byte, off int, link int) {
	binary.LittleEndian.PutUint64(b[off:off+WordSize], uint64(link))
}

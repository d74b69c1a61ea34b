package reporec

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"strings"
	"unicode/utf8"
)

const (
	// size of all fixed-width fields: 4 x uint32 + 2 x int64
	fixedSize = 4*4 + 2*8

	// MaxNameLen is the longest Name (in bytes) we can encode.
	// The length prefix must fit in int32.
	MaxNameLen = math.MaxInt32
)

// Reader is what Decode reads from. *bufio.Reader and *bytes.Reader
// satisfy it
type Reader interface {
	io.Reader
	io.ByteReader
}

func uvarintLen(n uint64) int {
	l := 1
	for n >= 0x80 {
		n >>= 7
		l++
	}
	return l
}

// EncodedSize returns the number of bytes Encode will produce for r
func EncodedSize(r *Record) int {
	n := len(r.Name)
	return fixedSize + uvarintLen(uint64(n)) + n
}

func validateName(name string) error {
	if len(name) > MaxNameLen {
		return fmt.Errorf("%w: name is %d bytes, max is %d", ErrEncoding, len(name), MaxNameLen)
	}
	if !utf8.ValidString(name) {
		return fmt.Errorf("%w: name '%s' is not valid utf-8", ErrEncoding, name)
	}
	return nil
}

// AppendEncoded appends encoded r to dst and returns the extended buffer.
// On error dst is returned unchanged.
func AppendEncoded(dst []byte, r *Record) ([]byte, error) {
	if err := validateName(r.Name); err != nil {
		return dst, err
	}
	dst = binary.LittleEndian.AppendUint32(dst, r.ID)
	dst = binary.LittleEndian.AppendUint32(dst, r.ModuleID)
	dst = binary.LittleEndian.AppendUint32(dst, r.ParentModuleID)
	dst = binary.AppendUvarint(dst, uint64(len(r.Name)))
	dst = append(dst, r.Name...)
	dst = binary.LittleEndian.AppendUint32(dst, r.OwnerID)
	dst = binary.LittleEndian.AppendUint64(dst, uint64(r.GUIDHigh))
	dst = binary.LittleEndian.AppendUint64(dst, uint64(r.GUIDLow))
	return dst, nil
}

// Encode returns r in its on-disk format
func Encode(r *Record) ([]byte, error) {
	d := make([]byte, 0, EncodedSize(r))
	return AppendEncoded(d, r)
}

func readErr(err error, field string) error {
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return &TruncatedError{Field: field}
	}
	return err
}

func readUint32(r Reader, buf []byte, field string) (uint32, error) {
	if _, err := io.ReadFull(r, buf[:4]); err != nil {
		return 0, readErr(err, field)
	}
	return binary.LittleEndian.Uint32(buf), nil
}

func readInt64(r Reader, buf []byte, field string) (int64, error) {
	if _, err := io.ReadFull(r, buf[:8]); err != nil {
		return 0, readErr(err, field)
	}
	return int64(binary.LittleEndian.Uint64(buf)), nil
}

func readName(r Reader) (string, error) {
	n, err := binary.ReadUvarint(r)
	if err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return "", &TruncatedError{Field: "name length"}
		}
		// varint overflow
		return "", fmt.Errorf("%w: invalid name length: %s", ErrEncoding, err)
	}
	if n > MaxNameLen {
		return "", fmt.Errorf("%w: name length %d exceeds %d", ErrEncoding, n, MaxNameLen)
	}
	if n == 0 {
		return "", nil
	}
	// don't trust a (possibly corrupted) length for a big allocation
	if n <= 64*1024 {
		d := make([]byte, n)
		if _, err = io.ReadFull(r, d); err != nil {
			return "", readErr(err, "name")
		}
		return string(d), nil
	}
	var sb strings.Builder
	if _, err = io.CopyN(&sb, r, int64(n)); err != nil {
		return "", readErr(err, "name")
	}
	return sb.String(), nil
}

// Decode reads the next record from r into rec.
// Returns io.EOF if r has no more data. If data ends in the middle of a
// record, returns *TruncatedError. rec is only modified on success.
func Decode(r Reader, rec *Record) error {
	var buf [8]byte
	var res Record
	var err error

	// distinguish clean end of data from a partial record
	if _, err = io.ReadFull(r, buf[:4]); err != nil {
		if err == io.EOF {
			return io.EOF
		}
		return readErr(err, "id")
	}
	res.ID = binary.LittleEndian.Uint32(buf[:4])

	if res.ModuleID, err = readUint32(r, buf[:], "module id"); err != nil {
		return err
	}
	if res.ParentModuleID, err = readUint32(r, buf[:], "parent module id"); err != nil {
		return err
	}
	if res.Name, err = readName(r); err != nil {
		return err
	}
	if res.OwnerID, err = readUint32(r, buf[:], "owner id"); err != nil {
		return err
	}
	if res.GUIDHigh, err = readInt64(r, buf[:], "guid high"); err != nil {
		return err
	}
	if res.GUIDLow, err = readInt64(r, buf[:], "guid low"); err != nil {
		return err
	}
	*rec = res
	return nil
}

// Unmarshal decodes d, which must contain exactly one record
func Unmarshal(d []byte) (Record, error) {
	var rec Record
	br := bytes.NewReader(d)
	err := Decode(br, &rec)
	if err == io.EOF {
		return rec, &TruncatedError{Field: "id"}
	}
	if err != nil {
		return rec, err
	}
	if br.Len() > 0 {
		return rec, fmt.Errorf("%d unexpected bytes after record", br.Len())
	}
	return rec, nil
}

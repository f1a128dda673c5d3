package settings

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
	"github.com/vazrupe/endibuf"
)

var (
	ErrBadMagic    = errors.New("settings: bad magic")
	ErrBadVersion  = errors.New("settings: unsupported version")
	ErrShortRecord = errors.New("settings: short record")
)

// Size is the encoded length of a Record.
var Size = binary.Size(Record{})

// Write encodes r little endian. Magic and version are always stamped with
// the current values.
func (r *Record) Write(w *endibuf.Writer) error {
	endianSave := w.Endian
	w.Endian = binary.LittleEndian
	defer func() { w.Endian = endianSave }()

	out := *r
	out.Magic = Magic
	out.Version = Version
	if err := binary.Write(w, w.Endian, &out); err != nil {
		return errors.Wrap(err, "write settings record")
	}
	return nil
}

// Read decodes a record and validates it. On any error r is left untouched.
func (r *Record) Read(rd *endibuf.Reader) error {
	endianSave := rd.Endian
	rd.Endian = binary.LittleEndian
	defer func() { rd.Endian = endianSave }()

	var in Record
	if err := binary.Read(rd, rd.Endian, &in); err != nil {
		switch errors.Cause(err) {
		case io.EOF, io.ErrUnexpectedEOF:
			return ErrShortRecord
		}
		return errors.Wrap(err, "read settings record")
	}
	if in.Magic != Magic {
		return errors.Wrapf(ErrBadMagic, "got %#08x", in.Magic)
	}
	if in.Version != Version {
		return errors.Wrapf(ErrBadVersion, "got %d, want %d", in.Version, Version)
	}
	*r = in
	return nil
}

// Decode parses a record from raw bytes.
func Decode(data []byte) (Record, error) {
	var r Record
	if len(data) < Size {
		return r, ErrShortRecord
	}
	err := r.Read(endibuf.NewReader(bytes.NewReader(data)))
	return r, err
}

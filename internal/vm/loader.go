package vm

// loader.go implements the image loader: reading a raw binary image (a
// big-endian origin address followed by big-endian words) and storing it
// into the machine's memory.

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/lc3vm/lc3vm/internal/log"
)

// Loader stores object code into a machine's memory.
type Loader struct {
	vm  *LC3
	log *log.Logger
}

// NewLoader creates an object loader bound to vm.
func NewLoader(vm *LC3) *Loader {
	return &Loader{vm: vm, log: log.DefaultLogger()}
}

// Load stores the object code starting at its origin address. Loading does
// not clear any memory the object doesn't cover, so later images may
// overlay earlier ones without disturbing the rest.
func (l *Loader) Load(obj ObjectCode) (uint16, error) {
	addr := obj.Orig
	count := uint16(0)

	for _, word := range obj.Code {
		if err := l.vm.Mem.store(addr, word); err != nil {
			return count, fmt.Errorf("%w: %w", ErrObjectLoader, err)
		}

		count++
		addr++
	}

	l.log.Debug("loaded image", "orig", obj.Orig, "words", count)

	return count, nil
}

// LoadVector stores the object, then points a trap or interrupt vector-table
// entry at its origin.
func (l *Loader) LoadVector(vector Word, obj ObjectCode) (uint16, error) {
	count, err := l.Load(obj)
	if err != nil {
		return count, err
	}

	if err := l.vm.Mem.store(vector, obj.Orig); err != nil {
		return count, fmt.Errorf("%w: %w", ErrObjectLoader, err)
	}

	return count, nil
}

// ObjectCode holds a contiguous block of words (instructions, data, or a
// mix) and the address it is meant to be loaded at.
type ObjectCode struct {
	Orig Word
	Code []Word
}

// ReadImage parses the raw image format: a big-endian origin address
// followed by big-endian 16-bit words. A trailing odd byte is silently
// ignored.
func ReadImage(r io.Reader) (ObjectCode, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return ObjectCode{}, fmt.Errorf("%w: %w", ErrObjectLoader, err)
	}

	var obj ObjectCode
	if _, err := obj.read(b); err != nil {
		return ObjectCode{}, err
	}

	return obj, nil
}

// read decodes an object from bytes, returning the number of bytes
// consumed.
func (obj *ObjectCode) read(b []byte) (int, error) {
	if len(b) < 2 {
		return 0, fmt.Errorf("%w: image too small", ErrObjectLoader)
	}

	in := bytes.NewReader(b)

	if err := binary.Read(in, binary.BigEndian, &obj.Orig); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrObjectLoader, err)
	}

	count := 2

	obj.Code = make([]Word, (len(b)-2)/2)
	if err := binary.Read(in, binary.BigEndian, obj.Code); err != nil {
		return count, fmt.Errorf("%w: %w", ErrObjectLoader, err)
	}

	count += len(obj.Code) * 2

	return count, nil
}

// ErrObjectLoader wraps errors from image loading.
var ErrObjectLoader = errors.New("loader error")

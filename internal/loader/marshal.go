package loader

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/retroenv/pydisasm/internal/codeunit"
	"github.com/retroenv/pydisasm/internal/opcode"
)

// Serialization type codes of the bytecode container format. Only the
// immutable types that can appear in a code object are supported, any
// other code aborts the decode.
const (
	typeNone          = 'N'
	typeFalse         = 'F'
	typeTrue          = 'T'
	typeStopIteration = 'S'
	typeEllipsis      = '.'
	typeInt           = 'i'
	typeInt64         = 'I'
	typeFloat         = 'f'
	typeBinaryFloat   = 'g'
	typeComplex       = 'x'
	typeBinaryComplex = 'y'
	typeLong          = 'l'
	typeString        = 's'
	typeInterned      = 't'
	typeStringRef     = 'R'
	typeUnicode       = 'u'
	typeTuple         = '('
	typeCode          = 'c'
)

// decoder deserializes the object graph of one stream. The interned
// string table is shared across the whole graph, nested code objects
// reference strings interned by their parents.
type decoder struct {
	r        *bufio.Reader
	opc      *opcode.Table
	interned []string
}

func (d *decoder) readObject() (codeunit.Const, error) {
	code, err := d.r.ReadByte()
	if err != nil {
		return codeunit.Const{}, fmt.Errorf("reading type code: %w", err)
	}

	switch code {
	case typeNone:
		return codeunit.Const{Kind: codeunit.KindNone}, nil
	case typeFalse:
		return codeunit.Const{Kind: codeunit.KindBool, Int: 0}, nil
	case typeTrue:
		return codeunit.Const{Kind: codeunit.KindBool, Int: 1}, nil
	case typeStopIteration:
		return codeunit.Const{Kind: codeunit.KindStopIteration}, nil
	case typeEllipsis:
		return codeunit.Const{Kind: codeunit.KindEllipsis}, nil

	case typeInt:
		v, err := d.readInt32()
		if err != nil {
			return codeunit.Const{}, err
		}
		return codeunit.Const{Kind: codeunit.KindInt, Int: int64(v)}, nil

	case typeInt64:
		var buf [8]byte
		if _, err := d.read(buf[:]); err != nil {
			return codeunit.Const{}, err
		}
		v := int64(binary.LittleEndian.Uint64(buf[:]))
		return codeunit.Const{Kind: codeunit.KindInt, Int: v}, nil

	case typeFloat:
		v, err := d.readFloatRepr()
		if err != nil {
			return codeunit.Const{}, err
		}
		return codeunit.Const{Kind: codeunit.KindFloat, Float: v}, nil

	case typeBinaryFloat:
		v, err := d.readFloat64()
		if err != nil {
			return codeunit.Const{}, err
		}
		return codeunit.Const{Kind: codeunit.KindFloat, Float: v}, nil

	case typeComplex:
		re, err := d.readFloatRepr()
		if err != nil {
			return codeunit.Const{}, err
		}
		im, err := d.readFloatRepr()
		if err != nil {
			return codeunit.Const{}, err
		}
		return codeunit.Const{Kind: codeunit.KindComplex, Complex: complex(re, im)}, nil

	case typeBinaryComplex:
		re, err := d.readFloat64()
		if err != nil {
			return codeunit.Const{}, err
		}
		im, err := d.readFloat64()
		if err != nil {
			return codeunit.Const{}, err
		}
		return codeunit.Const{Kind: codeunit.KindComplex, Complex: complex(re, im)}, nil

	case typeLong:
		v, err := d.readLong()
		if err != nil {
			return codeunit.Const{}, err
		}
		return codeunit.Const{Kind: codeunit.KindInt, Int: v}, nil

	case typeString:
		s, err := d.readString()
		if err != nil {
			return codeunit.Const{}, err
		}
		return codeunit.Const{Kind: codeunit.KindStr, Str: s}, nil

	case typeInterned:
		s, err := d.readString()
		if err != nil {
			return codeunit.Const{}, err
		}
		d.interned = append(d.interned, s)
		return codeunit.Const{Kind: codeunit.KindStr, Str: s}, nil

	case typeStringRef:
		idx, err := d.readInt32()
		if err != nil {
			return codeunit.Const{}, err
		}
		if idx < 0 || int(idx) >= len(d.interned) {
			return codeunit.Const{}, fmt.Errorf("string reference %d out of range", idx)
		}
		return codeunit.Const{Kind: codeunit.KindStr, Str: d.interned[idx]}, nil

	case typeUnicode:
		s, err := d.readString()
		if err != nil {
			return codeunit.Const{}, err
		}
		return codeunit.Const{Kind: codeunit.KindUnicode, Str: s}, nil

	case typeTuple:
		count, err := d.readInt32()
		if err != nil {
			return codeunit.Const{}, err
		}
		if count < 0 {
			return codeunit.Const{}, fmt.Errorf("negative tuple size %d", count)
		}
		items := make([]codeunit.Const, count)
		for i := range items {
			if items[i], err = d.readObject(); err != nil {
				return codeunit.Const{}, err
			}
		}
		return codeunit.Const{Kind: codeunit.KindTuple, Tuple: items}, nil

	case typeCode:
		cu, err := d.readCode()
		if err != nil {
			return codeunit.Const{}, err
		}
		return codeunit.Const{Kind: codeunit.KindCode, Code: cu}, nil
	}

	return codeunit.Const{}, fmt.Errorf("unsupported type code 0x%02x", code)
}

// readCode deserializes one code object, field order matches the
// serializer of the bytecode version.
func (d *decoder) readCode() (*codeunit.CodeUnit, error) {
	cu := &codeunit.CodeUnit{CmpOps: d.opc.CompareOps}

	intFields := []struct {
		name string
		dst  *int
	}{
		{"argument count", &cu.ArgCount},
		{"local count", &cu.Locals},
		{"stack size", &cu.StackSize},
	}
	for _, field := range intFields {
		v, err := d.readInt32()
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", field.name, err)
		}
		*field.dst = int(v)
	}

	flags, err := d.readInt32()
	if err != nil {
		return nil, fmt.Errorf("reading flags: %w", err)
	}
	cu.Flags = uint32(flags)

	codeObj, err := d.readObject()
	if err != nil {
		return nil, fmt.Errorf("reading instruction buffer: %w", err)
	}
	if codeObj.Kind != codeunit.KindStr {
		return nil, fmt.Errorf("instruction buffer is not a byte string")
	}
	cu.Code = []byte(codeObj.Str)

	constsObj, err := d.readObject()
	if err != nil {
		return nil, fmt.Errorf("reading constants: %w", err)
	}
	if constsObj.Kind != codeunit.KindTuple {
		return nil, fmt.Errorf("constants are not a tuple")
	}
	cu.Consts = constsObj.Tuple

	stringFields := []struct {
		name string
		dst  *[]string
	}{
		{"names", &cu.Names},
		{"variable names", &cu.VarNames},
		{"free variable names", &cu.FreeVars},
		{"cell variable names", &cu.CellVars},
	}
	for _, field := range stringFields {
		values, err := d.readStringTuple()
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", field.name, err)
		}
		*field.dst = values
	}

	filenameObj, err := d.readObject()
	if err != nil {
		return nil, fmt.Errorf("reading filename: %w", err)
	}
	cu.Filename = filenameObj.Str

	nameObj, err := d.readObject()
	if err != nil {
		return nil, fmt.Errorf("reading name: %w", err)
	}
	cu.Name = nameObj.Str

	firstLine, err := d.readInt32()
	if err != nil {
		return nil, fmt.Errorf("reading first line number: %w", err)
	}
	cu.FirstLine = int(firstLine)

	lnotabObj, err := d.readObject()
	if err != nil {
		return nil, fmt.Errorf("reading line number table: %w", err)
	}
	if lnotabObj.Kind != codeunit.KindStr {
		return nil, fmt.Errorf("line number table is not a byte string")
	}
	cu.LineBreaks = codeunit.ExpandLineTable([]byte(lnotabObj.Str), cu.FirstLine)

	return cu, nil
}

// readStringTuple reads a tuple whose elements must all be strings.
func (d *decoder) readStringTuple() ([]string, error) {
	obj, err := d.readObject()
	if err != nil {
		return nil, err
	}
	if obj.Kind != codeunit.KindTuple {
		return nil, fmt.Errorf("expected a tuple, got kind %d", obj.Kind)
	}
	if len(obj.Tuple) == 0 {
		return nil, nil
	}
	values := make([]string, len(obj.Tuple))
	for i, item := range obj.Tuple {
		if item.Kind != codeunit.KindStr && item.Kind != codeunit.KindUnicode {
			return nil, fmt.Errorf("tuple element %d is not a string", i)
		}
		values[i] = item.Str
	}
	return values, nil
}

// readLong reads an arbitrary precision integer: a signed digit count
// followed by 15 bit digits, least significant first. Values outside the
// int64 range are rejected instead of being silently truncated.
func (d *decoder) readLong() (int64, error) {
	count, err := d.readInt32()
	if err != nil {
		return 0, err
	}
	negative := count < 0
	if negative {
		count = -count
	}

	var value uint64
	for i := range int(count) {
		var buf [2]byte
		if _, err := d.read(buf[:]); err != nil {
			return 0, err
		}
		digit := uint64(binary.LittleEndian.Uint16(buf[:]))
		if digit == 0 {
			continue
		}
		shift := uint(i) * 15
		if shift >= 64 || digit>>(64-shift) != 0 {
			return 0, fmt.Errorf("long integer exceeds 64 bits")
		}
		value |= digit << shift
	}
	if negative {
		if value > 1<<63 {
			return 0, fmt.Errorf("long integer exceeds 64 bits")
		}
		// the magnitude 1<<63 wraps onto math.MinInt64, which is exact
		return -int64(value), nil
	}
	if value > math.MaxInt64 {
		return 0, fmt.Errorf("long integer exceeds 64 bits")
	}
	return int64(value), nil
}

// readFloatRepr reads a float stored as length prefixed decimal text.
func (d *decoder) readFloatRepr() (float64, error) {
	length, err := d.r.ReadByte()
	if err != nil {
		return 0, fmt.Errorf("reading float length: %w", err)
	}
	buf := make([]byte, length)
	if _, err := d.read(buf); err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(string(buf), 64)
	if err != nil {
		return 0, fmt.Errorf("parsing float %q: %w", buf, err)
	}
	return v, nil
}

func (d *decoder) readFloat64() (float64, error) {
	var buf [8]byte
	if _, err := d.read(buf[:]); err != nil {
		return 0, err
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(buf[:])), nil
}

func (d *decoder) readString() (string, error) {
	length, err := d.readInt32()
	if err != nil {
		return "", err
	}
	if length < 0 {
		return "", fmt.Errorf("negative string size %d", length)
	}
	buf := make([]byte, length)
	if _, err := d.read(buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

func (d *decoder) readUint32() (uint32, error) {
	var buf [4]byte
	if _, err := d.read(buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(buf[:]), nil
}

func (d *decoder) readInt32() (int32, error) {
	v, err := d.readUint32()
	return int32(v), err
}

func (d *decoder) read(buf []byte) (int, error) {
	n, err := io.ReadFull(d.r, buf)
	if err != nil {
		return n, fmt.Errorf("reading %d bytes: %w", len(buf), err)
	}
	return n, nil
}

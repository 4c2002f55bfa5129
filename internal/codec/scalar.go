package codec

import (
	"fmt"
	"reflect"

	"github.com/danmuck/suitcase/internal/codec/buffer"
	"github.com/danmuck/suitcase/internal/codec/cursor"
)

func isScalarKind(k reflect.Kind) bool {
	switch k {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}

// encodeScalar writes the raw little-endian bit pattern of v. int and uint
// are always written as 8 bytes so the layout does not depend on the
// platform word size.
func encodeScalar(v reflect.Value, buf *buffer.Buffer) error {
	switch v.Kind() {
	case reflect.Bool:
		buf.WriteBool(v.Bool())
	case reflect.Int8:
		buf.WriteInt8(int8(v.Int()))
	case reflect.Int16:
		buf.WriteInt16(int16(v.Int()))
	case reflect.Int32:
		buf.WriteInt32(int32(v.Int()))
	case reflect.Int, reflect.Int64:
		buf.WriteInt64(v.Int())
	case reflect.Uint8:
		buf.WriteUint8(uint8(v.Uint()))
	case reflect.Uint16:
		buf.WriteUint16(uint16(v.Uint()))
	case reflect.Uint32:
		buf.WriteUint32(uint32(v.Uint()))
	case reflect.Uint, reflect.Uint64:
		buf.WriteUint64(v.Uint())
	case reflect.Float32:
		buf.WriteFloat32(float32(v.Float()))
	case reflect.Float64:
		buf.WriteFloat64(v.Float())
	default:
		return fmt.Errorf("%w: %s is not a scalar", ErrNoStrategy, v.Type())
	}
	return nil
}

func decodeScalar(r *cursor.Region, v reflect.Value) error {
	switch v.Kind() {
	case reflect.Bool:
		b, err := r.ReadBool()
		if err != nil {
			return err
		}
		v.SetBool(b)
	case reflect.Int8:
		n, err := r.ReadInt8()
		if err != nil {
			return err
		}
		v.SetInt(int64(n))
	case reflect.Int16:
		n, err := r.ReadInt16()
		if err != nil {
			return err
		}
		v.SetInt(int64(n))
	case reflect.Int32:
		n, err := r.ReadInt32()
		if err != nil {
			return err
		}
		v.SetInt(int64(n))
	case reflect.Int, reflect.Int64:
		n, err := r.ReadInt64()
		if err != nil {
			return err
		}
		if v.OverflowInt(n) {
			return fmt.Errorf("codec: %d overflows %s", n, v.Type())
		}
		v.SetInt(n)
	case reflect.Uint8:
		n, err := r.ReadUint8()
		if err != nil {
			return err
		}
		v.SetUint(uint64(n))
	case reflect.Uint16:
		n, err := r.ReadUint16()
		if err != nil {
			return err
		}
		v.SetUint(uint64(n))
	case reflect.Uint32:
		n, err := r.ReadUint32()
		if err != nil {
			return err
		}
		v.SetUint(uint64(n))
	case reflect.Uint, reflect.Uint64:
		n, err := r.ReadUint64()
		if err != nil {
			return err
		}
		if v.OverflowUint(n) {
			return fmt.Errorf("codec: %d overflows %s", n, v.Type())
		}
		v.SetUint(n)
	case reflect.Float32:
		f, err := r.ReadFloat32()
		if err != nil {
			return err
		}
		v.SetFloat(float64(f))
	case reflect.Float64:
		f, err := r.ReadFloat64()
		if err != nil {
			return err
		}
		v.SetFloat(f)
	default:
		return fmt.Errorf("%w: %s is not a scalar", ErrNoStrategy, v.Type())
	}
	return nil
}

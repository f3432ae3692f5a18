// Package wire defines the serialized trace buffer layouts exchanged with
// the async trace task, and the message kinds that select them.
//
// Every layout is packed little-endian at fixed offsets. The field layout
// is not self-describing; the message kind carried alongside the buffer
// selects the decode routine. All encoding and decoding lives here so the
// offsets exist in exactly one place.
package wire

import (
	"encoding/binary"
	"fmt"
)

// Message kinds. The numeric values are part of the wire contract.
const (
	KindTraceString       uint16 = 5025 // scalar trace
	KindTraceStringReboot uint16 = 5026 // scalar trace followed by restart
	KindTraceU8           uint16 = 5027 // inline uint8 array
	KindTraceU16          uint16 = 5028 // inline uint16 array
	KindTraceU32          uint16 = 5029 // inline uint32 array
	KindStopTime          uint16 = 5030 // interval stop
	KindTraceI8           uint16 = 5031 // inline int8 array
	KindTraceI16          uint16 = 5032 // inline int16 array
	KindTraceI32          uint16 = 5033 // inline int32 array
	KindPrintString       uint16 = 5034 // plain string
	KindTraceISRString    uint16 = 5035 // interrupt-context string, no payload buffer

	KindTraceRefU8  uint16 = 5127 // indirect uint8 array
	KindTraceRefU16 uint16 = 5128 // indirect uint16 array
	KindTraceRefU32 uint16 = 5129 // indirect uint32 array
	KindTraceRefI8  uint16 = 5131 // indirect int8 array
	KindTraceRefI16 uint16 = 5132 // indirect int16 array
	KindTraceRefI32 uint16 = 5133 // indirect int32 array
)

// ArrayKindInfo describes an array message kind.
type ArrayKindInfo struct {
	Width    int // element width in bytes: 1, 2 or 4
	Signed   bool
	Indirect bool
}

// ArrayKind returns the layout description for an array kind, and false for
// any non-array kind.
func ArrayKind(kind uint16) (ArrayKindInfo, bool) {
	switch kind {
	case KindTraceU8:
		return ArrayKindInfo{Width: 1}, true
	case KindTraceI8:
		return ArrayKindInfo{Width: 1, Signed: true}, true
	case KindTraceU16:
		return ArrayKindInfo{Width: 2}, true
	case KindTraceI16:
		return ArrayKindInfo{Width: 2, Signed: true}, true
	case KindTraceU32:
		return ArrayKindInfo{Width: 4}, true
	case KindTraceI32:
		return ArrayKindInfo{Width: 4, Signed: true}, true
	case KindTraceRefU8:
		return ArrayKindInfo{Width: 1, Indirect: true}, true
	case KindTraceRefI8:
		return ArrayKindInfo{Width: 1, Signed: true, Indirect: true}, true
	case KindTraceRefU16:
		return ArrayKindInfo{Width: 2, Indirect: true}, true
	case KindTraceRefI16:
		return ArrayKindInfo{Width: 2, Signed: true, Indirect: true}, true
	case KindTraceRefU32:
		return ArrayKindInfo{Width: 4, Indirect: true}, true
	case KindTraceRefI32:
		return ArrayKindInfo{Width: 4, Signed: true, Indirect: true}, true
	}
	return ArrayKindInfo{}, false
}

// Scalar is the payload of KindTraceString and KindTraceStringReboot:
// [8B time][4B code][1B level][string][NUL].
type Scalar struct {
	Time  uint64 // elapsed microseconds
	Code  int32
	Level byte
	Msg   string
}

// EncodeScalar packs s into a freshly sized buffer.
func EncodeScalar(s Scalar) []byte {
	buf := make([]byte, 8+4+1+len(s.Msg)+1)
	binary.LittleEndian.PutUint64(buf[0:], s.Time)
	binary.LittleEndian.PutUint32(buf[8:], uint32(s.Code))
	buf[12] = s.Level
	copy(buf[13:], s.Msg)
	return buf
}

// DecodeScalar unpacks a scalar payload.
func DecodeScalar(buf []byte) (Scalar, error) {
	if len(buf) < 14 {
		return Scalar{}, fmt.Errorf("wire: scalar payload too short: %d bytes", len(buf))
	}
	return Scalar{
		Time:  binary.LittleEndian.Uint64(buf[0:]),
		Code:  int32(binary.LittleEndian.Uint32(buf[8:])),
		Level: buf[12],
		Msg:   cstring(buf[13:]),
	}, nil
}

// Stop is the payload of KindStopTime: [8B time][4B divisor][string][NUL].
type Stop struct {
	Time uint64
	Div  uint32
	Msg  string
}

// EncodeStop packs s into a freshly sized buffer.
func EncodeStop(s Stop) []byte {
	buf := make([]byte, 8+4+len(s.Msg)+1)
	binary.LittleEndian.PutUint64(buf[0:], s.Time)
	binary.LittleEndian.PutUint32(buf[8:], s.Div)
	copy(buf[12:], s.Msg)
	return buf
}

// DecodeStop unpacks an interval-stop payload.
func DecodeStop(buf []byte) (Stop, error) {
	if len(buf) < 13 {
		return Stop{}, fmt.Errorf("wire: stop payload too short: %d bytes", len(buf))
	}
	return Stop{
		Time: binary.LittleEndian.Uint64(buf[0:]),
		Div:  binary.LittleEndian.Uint32(buf[8:]),
		Msg:  cstring(buf[12:]),
	}, nil
}

// Array is the payload of the inline array kinds:
// [8B time][4B count][count*width bytes][string][NUL].
// Data holds the little-endian element bytes; element width and signedness
// come from the message kind.
type Array struct {
	Time  uint64
	Count uint32
	Data  []byte
	Msg   string
}

// EncodeArray packs a into a freshly sized buffer. len(a.Data) must equal
// Count*width for the kind this payload will be tagged with.
func EncodeArray(a Array) []byte {
	buf := make([]byte, 8+4+len(a.Data)+len(a.Msg)+1)
	binary.LittleEndian.PutUint64(buf[0:], a.Time)
	binary.LittleEndian.PutUint32(buf[8:], a.Count)
	copy(buf[12:], a.Data)
	copy(buf[12+len(a.Data):], a.Msg)
	return buf
}

// DecodeArray unpacks an inline array payload for elements of the given
// width in bytes.
func DecodeArray(buf []byte, width int) (Array, error) {
	if len(buf) < 13 {
		return Array{}, fmt.Errorf("wire: array payload too short: %d bytes", len(buf))
	}
	count := binary.LittleEndian.Uint32(buf[8:])
	end := 12 + int(count)*width
	if end+1 > len(buf) {
		return Array{}, fmt.Errorf("wire: array payload truncated: count=%d width=%d len=%d", count, width, len(buf))
	}
	return Array{
		Time:  binary.LittleEndian.Uint64(buf[0:]),
		Count: count,
		Data:  buf[12:end],
		Msg:   cstring(buf[end:]),
	}, nil
}

// ArrayRef is the payload of the indirect array kinds:
// [8B time][4B count][4B handle][string][NUL].
// The handle identifies the caller's slice in a Pinboard; the four-byte slot
// replaces the raw data address the original layout carried.
type ArrayRef struct {
	Time   uint64
	Count  uint32
	Handle uint32
	Msg    string
}

// EncodeArrayRef packs a into a freshly sized buffer.
func EncodeArrayRef(a ArrayRef) []byte {
	buf := make([]byte, 8+4+4+len(a.Msg)+1)
	binary.LittleEndian.PutUint64(buf[0:], a.Time)
	binary.LittleEndian.PutUint32(buf[8:], a.Count)
	binary.LittleEndian.PutUint32(buf[12:], a.Handle)
	copy(buf[16:], a.Msg)
	return buf
}

// DecodeArrayRef unpacks an indirect array payload. The handle is read at
// offset 12 for every element width.
func DecodeArrayRef(buf []byte) (ArrayRef, error) {
	if len(buf) < 17 {
		return ArrayRef{}, fmt.Errorf("wire: array-ref payload too short: %d bytes", len(buf))
	}
	return ArrayRef{
		Time:   binary.LittleEndian.Uint64(buf[0:]),
		Count:  binary.LittleEndian.Uint32(buf[8:]),
		Handle: binary.LittleEndian.Uint32(buf[12:]),
		Msg:    cstring(buf[16:]),
	}, nil
}

// EncodePlain packs a plain string payload for KindPrintString:
// [string][NUL].
func EncodePlain(s string) []byte {
	buf := make([]byte, len(s)+1)
	copy(buf, s)
	return buf
}

// DecodePlain unpacks a plain string payload.
func DecodePlain(buf []byte) string {
	return cstring(buf)
}

// cstring returns the bytes up to the first NUL, or the whole slice if no
// NUL is present.
func cstring(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}

// PackU16 renders 16-bit elements as little-endian bytes.
func PackU16(data []uint16) []byte {
	buf := make([]byte, 2*len(data))
	for i, v := range data {
		binary.LittleEndian.PutUint16(buf[2*i:], v)
	}
	return buf
}

// PackU32 renders 32-bit elements as little-endian bytes.
func PackU32(data []uint32) []byte {
	buf := make([]byte, 4*len(data))
	for i, v := range data {
		binary.LittleEndian.PutUint32(buf[4*i:], v)
	}
	return buf
}

// U16 reads element i of a 16-bit inline array.
func (a Array) U16(i int) uint16 { return binary.LittleEndian.Uint16(a.Data[2*i:]) }

// U32 reads element i of a 32-bit inline array.
func (a Array) U32(i int) uint32 { return binary.LittleEndian.Uint32(a.Data[4*i:]) }

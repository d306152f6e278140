// Package rosmsg implements the ROS1 wire format for the message types the
// console exchanges with the gateway.
//
// Layout follows the ROS serialization rules: little-endian fixed-size
// fields, strings and variable arrays prefixed with a uint32 length, fixed
// arrays written inline.
package rosmsg

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/pkg/errors"
)

// ErrShortBuffer is the cause of every decoding failure on truncated input.
var ErrShortBuffer = errors.New("rosmsg: short buffer")

// ErrUnknownType is returned for message type names the registry lacks.
var ErrUnknownType = errors.New("rosmsg: unknown message type")

// Message is a ROS message with a wire representation.
type Message interface {
	TypeName() string
	Serialize(buf *bytes.Buffer) error
	Deserialize(buf *bytes.Reader) error
}

var registry = map[string]func() Message{
	TypeHeader:            func() Message { return &Header{} },
	TypeFloat32:           func() Message { return &Float32{} },
	TypeFloat32MultiArray: func() Message { return &Float32MultiArray{} },
	TypeString:            func() Message { return &String{} },
	TypeCompressedImage:   func() Message { return &CompressedImage{} },
	TypeLaserScan:         func() Message { return &LaserScan{} },
	TypeJoy:               func() Message { return &Joy{} },
	TypeImu:               func() Message { return &Imu{} },
	TypePoseStamped:       func() Message { return &PoseStamped{} },
	TypeEmpty:             func() Message { return &Empty{} },
}

// New returns an empty message of the named type.
func New(typeName string) (Message, error) {
	ctor, ok := registry[typeName]
	if !ok {
		return nil, errors.Wrap(ErrUnknownType, typeName)
	}
	return ctor(), nil
}

// Known reports whether typeName can be decoded.
func Known(typeName string) bool {
	_, ok := registry[typeName]
	return ok
}

// Marshal serializes m into a fresh byte slice.
func Marshal(m Message) ([]byte, error) {
	var buf bytes.Buffer
	if err := m.Serialize(&buf); err != nil {
		return nil, errors.Wrapf(err, "serializing %s", m.TypeName())
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes data as a message of the named type.
func Unmarshal(typeName string, data []byte) (Message, error) {
	m, err := New(typeName)
	if err != nil {
		return nil, err
	}
	if err := m.Deserialize(bytes.NewReader(data)); err != nil {
		return nil, errors.Wrapf(err, "decoding %s", typeName)
	}
	return m, nil
}

// encoder writes little-endian fields; bytes.Buffer writes never fail.
type encoder struct {
	buf *bytes.Buffer
}

func (e encoder) write(v interface{}) {
	_ = binary.Write(e.buf, binary.LittleEndian, v)
}

func (e encoder) string(s string) {
	e.write(uint32(len(s)))
	e.buf.WriteString(s)
}

func (e encoder) bytes(b []byte) {
	e.write(uint32(len(b)))
	e.buf.Write(b)
}

func (e encoder) float32s(v []float32) {
	e.write(uint32(len(v)))
	e.write(v)
}

func (e encoder) int32s(v []int32) {
	e.write(uint32(len(v)))
	e.write(v)
}

// decoder reads little-endian fields and keeps the first error.
type decoder struct {
	r   *bytes.Reader
	err error
}

func (d *decoder) read(field string, v interface{}) {
	if d.err != nil {
		return
	}
	if err := binary.Read(d.r, binary.LittleEndian, v); err != nil {
		d.err = errors.Wrapf(ErrShortBuffer, "%s: %v", field, err)
	}
}

// length reads a uint32 element count and checks it against the bytes left.
func (d *decoder) length(field string, elemSize int) int {
	var n uint32
	d.read(field, &n)
	if d.err != nil {
		return 0
	}
	if int64(n)*int64(elemSize) > int64(d.r.Len()) {
		d.err = errors.Wrap(ErrShortBuffer, fmt.Sprintf("%s: %d elements exceed %d remaining bytes", field, n, d.r.Len()))
		return 0
	}
	return int(n)
}

func (d *decoder) string(field string) string {
	return string(d.bytes(field))
}

func (d *decoder) bytes(field string) []byte {
	n := d.length(field, 1)
	if d.err != nil {
		return nil
	}
	b := make([]byte, n)
	d.read(field, b)
	return b
}

func (d *decoder) float32s(field string) []float32 {
	n := d.length(field, 4)
	if d.err != nil {
		return nil
	}
	v := make([]float32, n)
	d.read(field, v)
	return v
}

func (d *decoder) int32s(field string) []int32 {
	n := d.length(field, 4)
	if d.err != nil {
		return nil
	}
	v := make([]int32, n)
	d.read(field, v)
	return v
}

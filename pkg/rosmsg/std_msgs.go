package rosmsg

import (
	"bytes"
	"time"
)

// Message type names.
const (
	TypeHeader            = "std_msgs/Header"
	TypeFloat32           = "std_msgs/Float32"
	TypeFloat32MultiArray = "std_msgs/Float32MultiArray"
	TypeString            = "std_msgs/String"
	TypeEmpty             = "std_srvs/Empty"
)

// Time is a ROS timestamp.
type Time struct {
	Sec  uint32
	NSec uint32
}

// NewTime converts a time.Time into a ROS timestamp.
func NewTime(t time.Time) Time {
	if t.IsZero() {
		return Time{}
	}
	return Time{Sec: uint32(t.Unix()), NSec: uint32(t.Nanosecond())}
}

// Time converts the stamp to a time.Time. The zero stamp maps to the zero time.
func (t Time) Time() time.Time {
	if t.Sec == 0 && t.NSec == 0 {
		return time.Time{}
	}
	return time.Unix(int64(t.Sec), int64(t.NSec))
}

// Header is std_msgs/Header.
type Header struct {
	Seq     uint32
	Stamp   Time
	FrameID string
}

func (m *Header) TypeName() string { return TypeHeader }

func (m *Header) Serialize(buf *bytes.Buffer) error {
	m.encode(encoder{buf})
	return nil
}

func (m *Header) Deserialize(buf *bytes.Reader) error {
	d := &decoder{r: buf}
	m.decode(d)
	return d.err
}

func (m *Header) encode(e encoder) {
	e.write(m.Seq)
	e.write(m.Stamp.Sec)
	e.write(m.Stamp.NSec)
	e.string(m.FrameID)
}

func (m *Header) decode(d *decoder) {
	d.read("header.seq", &m.Seq)
	d.read("header.stamp.sec", &m.Stamp.Sec)
	d.read("header.stamp.nsec", &m.Stamp.NSec)
	m.FrameID = d.string("header.frame_id")
}

// Float32 is std_msgs/Float32.
type Float32 struct {
	Data float32
}

func (m *Float32) TypeName() string { return TypeFloat32 }

func (m *Float32) Serialize(buf *bytes.Buffer) error {
	encoder{buf}.write(m.Data)
	return nil
}

func (m *Float32) Deserialize(buf *bytes.Reader) error {
	d := &decoder{r: buf}
	d.read("data", &m.Data)
	return d.err
}

// MultiArrayDimension is std_msgs/MultiArrayDimension.
type MultiArrayDimension struct {
	Label  string
	Size   uint32
	Stride uint32
}

// MultiArrayLayout is std_msgs/MultiArrayLayout.
type MultiArrayLayout struct {
	Dim        []MultiArrayDimension
	DataOffset uint32
}

// Float32MultiArray is std_msgs/Float32MultiArray.
type Float32MultiArray struct {
	Layout MultiArrayLayout
	Data   []float32
}

func (m *Float32MultiArray) TypeName() string { return TypeFloat32MultiArray }

func (m *Float32MultiArray) Serialize(buf *bytes.Buffer) error {
	e := encoder{buf}
	e.write(uint32(len(m.Layout.Dim)))
	for _, dim := range m.Layout.Dim {
		e.string(dim.Label)
		e.write(dim.Size)
		e.write(dim.Stride)
	}
	e.write(m.Layout.DataOffset)
	e.float32s(m.Data)
	return nil
}

func (m *Float32MultiArray) Deserialize(buf *bytes.Reader) error {
	d := &decoder{r: buf}
	// Each dimension needs at least a length prefix and two uint32s.
	n := d.length("layout.dim", 12)
	m.Layout.Dim = make([]MultiArrayDimension, n)
	for i := range m.Layout.Dim {
		m.Layout.Dim[i].Label = d.string("layout.dim.label")
		d.read("layout.dim.size", &m.Layout.Dim[i].Size)
		d.read("layout.dim.stride", &m.Layout.Dim[i].Stride)
	}
	d.read("layout.data_offset", &m.Layout.DataOffset)
	m.Data = d.float32s("data")
	return d.err
}

// String is std_msgs/String.
type String struct {
	Data string
}

func (m *String) TypeName() string { return TypeString }

func (m *String) Serialize(buf *bytes.Buffer) error {
	encoder{buf}.string(m.Data)
	return nil
}

func (m *String) Deserialize(buf *bytes.Reader) error {
	d := &decoder{r: buf}
	m.Data = d.string("data")
	return d.err
}

// Empty is the std_srvs/Empty request, which carries no fields.
type Empty struct{}

func (m *Empty) TypeName() string                    { return TypeEmpty }
func (m *Empty) Serialize(buf *bytes.Buffer) error   { return nil }
func (m *Empty) Deserialize(buf *bytes.Reader) error { return nil }

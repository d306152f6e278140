package rosmsg

import "bytes"

const (
	TypeCompressedImage = "sensor_msgs/CompressedImage"
	TypeLaserScan       = "sensor_msgs/LaserScan"
	TypeJoy             = "sensor_msgs/Joy"
	TypeImu             = "sensor_msgs/Imu"
)

// CompressedImage is sensor_msgs/CompressedImage. Data holds the encoded
// image bytes named by Format (jpeg, png).
type CompressedImage struct {
	Header Header
	Format string
	Data   []byte
}

func (m *CompressedImage) TypeName() string { return TypeCompressedImage }

func (m *CompressedImage) Serialize(buf *bytes.Buffer) error {
	e := encoder{buf}
	m.Header.encode(e)
	e.string(m.Format)
	e.bytes(m.Data)
	return nil
}

func (m *CompressedImage) Deserialize(buf *bytes.Reader) error {
	d := &decoder{r: buf}
	m.Header.decode(d)
	m.Format = d.string("format")
	m.Data = d.bytes("data")
	return d.err
}

// LaserScan is sensor_msgs/LaserScan.
type LaserScan struct {
	Header         Header
	AngleMin       float32
	AngleMax       float32
	AngleIncrement float32
	TimeIncrement  float32
	ScanTime       float32
	RangeMin       float32
	RangeMax       float32
	Ranges         []float32
	Intensities    []float32
}

func (m *LaserScan) TypeName() string { return TypeLaserScan }

func (m *LaserScan) Serialize(buf *bytes.Buffer) error {
	e := encoder{buf}
	m.Header.encode(e)
	e.write(m.AngleMin)
	e.write(m.AngleMax)
	e.write(m.AngleIncrement)
	e.write(m.TimeIncrement)
	e.write(m.ScanTime)
	e.write(m.RangeMin)
	e.write(m.RangeMax)
	e.float32s(m.Ranges)
	e.float32s(m.Intensities)
	return nil
}

func (m *LaserScan) Deserialize(buf *bytes.Reader) error {
	d := &decoder{r: buf}
	m.Header.decode(d)
	d.read("angle_min", &m.AngleMin)
	d.read("angle_max", &m.AngleMax)
	d.read("angle_increment", &m.AngleIncrement)
	d.read("time_increment", &m.TimeIncrement)
	d.read("scan_time", &m.ScanTime)
	d.read("range_min", &m.RangeMin)
	d.read("range_max", &m.RangeMax)
	m.Ranges = d.float32s("ranges")
	m.Intensities = d.float32s("intensities")
	return d.err
}

// Joy is sensor_msgs/Joy.
type Joy struct {
	Header  Header
	Axes    []float32
	Buttons []int32
}

func (m *Joy) TypeName() string { return TypeJoy }

func (m *Joy) Serialize(buf *bytes.Buffer) error {
	e := encoder{buf}
	m.Header.encode(e)
	e.float32s(m.Axes)
	e.int32s(m.Buttons)
	return nil
}

func (m *Joy) Deserialize(buf *bytes.Reader) error {
	d := &decoder{r: buf}
	m.Header.decode(d)
	m.Axes = d.float32s("axes")
	m.Buttons = d.int32s("buttons")
	return d.err
}

// Imu is sensor_msgs/Imu.
type Imu struct {
	Header                       Header
	Orientation                  Quaternion
	OrientationCovariance        [9]float64
	AngularVelocity              Vector3
	AngularVelocityCovariance    [9]float64
	LinearAcceleration           Vector3
	LinearAccelerationCovariance [9]float64
}

func (m *Imu) TypeName() string { return TypeImu }

func (m *Imu) Serialize(buf *bytes.Buffer) error {
	e := encoder{buf}
	m.Header.encode(e)
	e.write(m.Orientation)
	e.write(m.OrientationCovariance)
	e.write(m.AngularVelocity)
	e.write(m.AngularVelocityCovariance)
	e.write(m.LinearAcceleration)
	e.write(m.LinearAccelerationCovariance)
	return nil
}

func (m *Imu) Deserialize(buf *bytes.Reader) error {
	d := &decoder{r: buf}
	m.Header.decode(d)
	d.read("orientation", &m.Orientation)
	d.read("orientation_covariance", &m.OrientationCovariance)
	d.read("angular_velocity", &m.AngularVelocity)
	d.read("angular_velocity_covariance", &m.AngularVelocityCovariance)
	d.read("linear_acceleration", &m.LinearAcceleration)
	d.read("linear_acceleration_covariance", &m.LinearAccelerationCovariance)
	return d.err
}

package rosmsg

import "bytes"

const TypePoseStamped = "geometry_msgs/PoseStamped"

// Vector3 is geometry_msgs/Vector3.
type Vector3 struct {
	X, Y, Z float64
}

// Point is geometry_msgs/Point.
type Point struct {
	X, Y, Z float64
}

// Quaternion is geometry_msgs/Quaternion.
type Quaternion struct {
	X, Y, Z, W float64
}

// Pose is geometry_msgs/Pose.
type Pose struct {
	Position    Point
	Orientation Quaternion
}

// PoseStamped is geometry_msgs/PoseStamped.
type PoseStamped struct {
	Header Header
	Pose   Pose
}

func (m *PoseStamped) TypeName() string { return TypePoseStamped }

func (m *PoseStamped) Serialize(buf *bytes.Buffer) error {
	e := encoder{buf}
	m.Header.encode(e)
	e.write(m.Pose)
	return nil
}

func (m *PoseStamped) Deserialize(buf *bytes.Reader) error {
	d := &decoder{r: buf}
	m.Header.decode(d)
	d.read("pose", &m.Pose)
	return d.err
}

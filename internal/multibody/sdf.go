package multibody

import (
	"encoding/xml"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

var (
	ErrNoModel      = errors.New("multibody: file contains no model")
	ErrBadGeometry  = errors.New("multibody: visual has no recognized geometry")
	ErrBadJointType = errors.New("multibody: unsupported joint type")
)

type ShapeKind int

const (
	ShapeBox ShapeKind = iota
	ShapeCylinder
	ShapeSphere
)

func (k ShapeKind) String() string {
	switch k {
	case ShapeBox:
		return "box"
	case ShapeCylinder:
		return "cylinder"
	case ShapeSphere:
		return "sphere"
	}
	return "unknown"
}

// Shape is one primitive geometry. Size is used by boxes, Radius and
// Length by cylinders, Radius alone by spheres.
type Shape struct {
	Kind   ShapeKind
	Size   [3]float64
	Radius float64
	Length float64
}

// Geometry is a named visual or collision element on a link.
type Geometry struct {
	Name  string
	Pose  Pose
	Shape Shape
}

type Link struct {
	Name       string
	Pose       Pose
	Visuals    []Geometry
	Collisions []Geometry
}

type JointType int

const (
	JointFixed JointType = iota
	JointRevolute
	JointPrismatic
)

func (t JointType) String() string {
	switch t {
	case JointFixed:
		return "fixed"
	case JointRevolute:
		return "revolute"
	case JointPrismatic:
		return "prismatic"
	}
	return "unknown"
}

type Joint struct {
	Name   string
	Type   JointType
	Parent string
	Child  string
	Pose   Pose
	Axis   [3]float64
	Lower  float64
	Upper  float64
}

type Model struct {
	Name   string
	Links  []Link
	Joints []Joint
}

// raw XML shapes for encoding/xml.

type sdfFile struct {
	XMLName xml.Name  `xml:"sdf"`
	Version string    `xml:"version,attr"`
	Model   *sdfModel `xml:"model"`
}

type sdfModel struct {
	Name   string     `xml:"name,attr"`
	Links  []sdfLink  `xml:"link"`
	Joints []sdfJoint `xml:"joint"`
}

type sdfLink struct {
	Name       string        `xml:"name,attr"`
	Pose       string        `xml:"pose"`
	Visuals    []sdfGeometry `xml:"visual"`
	Collisions []sdfGeometry `xml:"collision"`
}

type sdfGeometry struct {
	Name     string  `xml:"name,attr"`
	Pose     string  `xml:"pose"`
	Box      *sdfBox `xml:"geometry>box"`
	Cylinder *sdfCyl `xml:"geometry>cylinder"`
	Sphere   *sdfSph `xml:"geometry>sphere"`
}

type sdfBox struct {
	Size string `xml:"size"`
}

type sdfCyl struct {
	Radius float64 `xml:"radius"`
	Length float64 `xml:"length"`
}

type sdfSph struct {
	Radius float64 `xml:"radius"`
}

type sdfJoint struct {
	Name   string   `xml:"name,attr"`
	Type   string   `xml:"type,attr"`
	Parent string   `xml:"parent"`
	Child  string   `xml:"child"`
	Pose   string   `xml:"pose"`
	Axis   *sdfAxis `xml:"axis"`
}

type sdfAxis struct {
	XYZ   string `xml:"xyz"`
	Lower string `xml:"limit>lower"`
	Upper string `xml:"limit>upper"`
}

// LoadModel reads and parses an SDF model file.
func LoadModel(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("multibody: read %s: %w", path, err)
	}
	m, err := ParseModel(data)
	if err != nil {
		return nil, fmt.Errorf("multibody: parse %s: %w", path, err)
	}
	return m, nil
}

// ParseModel parses SDF XML bytes into a Model.
func ParseModel(data []byte) (*Model, error) {
	var file sdfFile
	if err := xml.Unmarshal(data, &file); err != nil {
		return nil, err
	}
	if file.Model == nil {
		return nil, ErrNoModel
	}

	model := &Model{Name: file.Model.Name}
	for _, rl := range file.Model.Links {
		link := Link{Name: rl.Name}
		pose, err := parsePose(rl.Pose)
		if err != nil {
			return nil, fmt.Errorf("link %q: %w", rl.Name, err)
		}
		link.Pose = pose

		for _, rv := range rl.Visuals {
			g, err := parseGeometry(rv)
			if err != nil {
				return nil, fmt.Errorf("link %q visual %q: %w", rl.Name, rv.Name, err)
			}
			link.Visuals = append(link.Visuals, g)
		}
		for _, rc := range rl.Collisions {
			g, err := parseGeometry(rc)
			if err != nil {
				return nil, fmt.Errorf("link %q collision %q: %w", rl.Name, rc.Name, err)
			}
			link.Collisions = append(link.Collisions, g)
		}
		model.Links = append(model.Links, link)
	}

	for _, rj := range file.Model.Joints {
		j, err := parseJoint(rj)
		if err != nil {
			return nil, fmt.Errorf("joint %q: %w", rj.Name, err)
		}
		model.Joints = append(model.Joints, j)
	}
	return model, nil
}

func parseGeometry(raw sdfGeometry) (Geometry, error) {
	g := Geometry{Name: raw.Name}
	pose, err := parsePose(raw.Pose)
	if err != nil {
		return g, err
	}
	g.Pose = pose

	switch {
	case raw.Box != nil:
		size, err := parseFloats(raw.Box.Size, 3)
		if err != nil {
			return g, fmt.Errorf("box size: %w", err)
		}
		g.Shape = Shape{Kind: ShapeBox, Size: [3]float64{size[0], size[1], size[2]}}
	case raw.Cylinder != nil:
		g.Shape = Shape{Kind: ShapeCylinder, Radius: raw.Cylinder.Radius, Length: raw.Cylinder.Length}
	case raw.Sphere != nil:
		g.Shape = Shape{Kind: ShapeSphere, Radius: raw.Sphere.Radius}
	default:
		return g, ErrBadGeometry
	}
	return g, nil
}

func parseJoint(raw sdfJoint) (Joint, error) {
	j := Joint{
		Name:   raw.Name,
		Parent: strings.TrimSpace(raw.Parent),
		Child:  strings.TrimSpace(raw.Child),
		Axis:   [3]float64{0, 0, 1},
	}

	switch raw.Type {
	case "fixed":
		j.Type = JointFixed
	case "revolute":
		j.Type = JointRevolute
	case "prismatic":
		j.Type = JointPrismatic
	default:
		return j, fmt.Errorf("%w: %q", ErrBadJointType, raw.Type)
	}

	pose, err := parsePose(raw.Pose)
	if err != nil {
		return j, err
	}
	j.Pose = pose

	if raw.Axis != nil {
		if xyz := strings.TrimSpace(raw.Axis.XYZ); xyz != "" {
			v, err := parseFloats(xyz, 3)
			if err != nil {
				return j, fmt.Errorf("axis: %w", err)
			}
			j.Axis = [3]float64{v[0], v[1], v[2]}
		}
		j.Lower, err = parseLimit(raw.Axis.Lower, -1e16)
		if err != nil {
			return j, fmt.Errorf("lower limit: %w", err)
		}
		j.Upper, err = parseLimit(raw.Axis.Upper, 1e16)
		if err != nil {
			return j, fmt.Errorf("upper limit: %w", err)
		}
	} else {
		j.Lower, j.Upper = -1e16, 1e16
	}
	return j, nil
}

func parseLimit(s string, fallback float64) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return fallback, nil
	}
	return strconv.ParseFloat(s, 64)
}

// parsePose reads "x y z roll pitch yaw"; an empty element is identity and
// a bare translation "x y z" is accepted.
func parsePose(s string) (Pose, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Identity(), nil
	}
	fields := strings.Fields(s)
	vals := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return Identity(), fmt.Errorf("pose element %q: %w", f, err)
		}
		vals[i] = v
	}
	switch len(vals) {
	case 3:
		return Translation(vals[0], vals[1], vals[2]), nil
	case 6:
		return FromXYZRPY(vals[0], vals[1], vals[2], vals[3], vals[4], vals[5]), nil
	}
	return Identity(), fmt.Errorf("pose has %d elements, want 3 or 6", len(vals))
}

func parseFloats(s string, n int) ([]float64, error) {
	fields := strings.Fields(strings.TrimSpace(s))
	if len(fields) != n {
		return nil, fmt.Errorf("have %d values, want %d", len(fields), n)
	}
	out := make([]float64, n)
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

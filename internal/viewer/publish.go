package viewer

import (
	"fmt"

	"github.com/san-kum/optlab/internal/multibody"
)

const (
	visualColor    = "#8899cc"
	collisionColor = "#cc5555"
)

// PublishPlant loads a finalized plant into the scene: visual geometry
// under visual/, collision geometry under collision/. Collision geometry
// starts hidden; a visible property toggle brings it back.
func (s *Server) PublishPlant(plant *multibody.Plant, q []float64) error {
	model := plant.Model()
	for _, link := range model.Links {
		for _, g := range link.Visuals {
			path := geometryPath("visual", model.Name, link.Name, g.Name)
			if err := s.SetObject(path, shapeObject(g.Shape, visualColor)); err != nil {
				return err
			}
		}
		for _, g := range link.Collisions {
			path := geometryPath("collision", model.Name, link.Name, g.Name)
			if err := s.SetObject(path, shapeObject(g.Shape, collisionColor)); err != nil {
				return err
			}
			if err := s.SetProperty(path, "visible", false); err != nil {
				return err
			}
		}
	}
	return s.PublishPoses(plant, q)
}

// PublishPoses pushes forward-kinematics transforms for every geometry at
// the joint positions q.
func (s *Server) PublishPoses(plant *multibody.Plant, q []float64) error {
	poses, err := plant.CalcLinkPoses(q)
	if err != nil {
		return err
	}
	model := plant.Model()
	byName := make(map[string]multibody.Pose, len(poses))
	for _, lp := range poses {
		byName[lp.Link] = lp.Pose
	}

	for _, link := range model.Links {
		world, ok := byName[link.Name]
		if !ok {
			continue
		}
		for _, g := range link.Visuals {
			path := geometryPath("visual", model.Name, link.Name, g.Name)
			if err := s.SetTransform(path, world.Mul(g.Pose).Matrix4()); err != nil {
				return err
			}
		}
		for _, g := range link.Collisions {
			path := geometryPath("collision", model.Name, link.Name, g.Name)
			if err := s.SetTransform(path, world.Mul(g.Pose).Matrix4()); err != nil {
				return err
			}
		}
	}
	return nil
}

// SetCollisionVisible toggles every collision geometry of the plant.
func (s *Server) SetCollisionVisible(plant *multibody.Plant, visible bool) error {
	model := plant.Model()
	for _, link := range model.Links {
		for _, g := range link.Collisions {
			path := geometryPath("collision", model.Name, link.Name, g.Name)
			if err := s.SetProperty(path, "visible", visible); err != nil {
				return err
			}
		}
	}
	return nil
}

func geometryPath(prefix, model, link, geom string) string {
	return fmt.Sprintf("%s/%s/%s/%s", prefix, model, link, geom)
}

func shapeObject(shape multibody.Shape, color string) Object {
	obj := Object{Type: shape.Kind.String(), Color: color}
	switch shape.Kind {
	case multibody.ShapeBox:
		obj.Size = []float64{shape.Size[0], shape.Size[1], shape.Size[2]}
	case multibody.ShapeCylinder:
		obj.Radius = shape.Radius
		obj.Length = shape.Length
	case multibody.ShapeSphere:
		obj.Radius = shape.Radius
	}
	return obj
}

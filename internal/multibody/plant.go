package multibody

import (
	"errors"
	"fmt"
)

var (
	ErrFinalized     = errors.New("multibody: plant already finalized")
	ErrNotFinalized  = errors.New("multibody: plant not finalized")
	ErrUnknownLink   = errors.New("multibody: joint references unknown link")
	ErrMultiParent   = errors.New("multibody: link has more than one parent joint")
	ErrKinematicLoop = errors.New("multibody: joints form a loop")
)

// Plant holds a finalized model as a kinematic tree rooted at the world.
// Free links (no parent joint) hang off the world at their own pose.
type Plant struct {
	model     *Model
	finalized bool

	linkIndex map[string]int
	parent    []int // joint index per link, -1 for roots
	order     []int // link indices, parents before children
	active    []int // joint indices of non-fixed joints, q order
}

func NewPlant(model *Model) *Plant {
	return &Plant{model: model}
}

func (p *Plant) Model() *Model { return p.model }

// Finalize checks the joint graph and freezes the plant. After this the
// joint accessors and forward kinematics become available.
func (p *Plant) Finalize() error {
	if p.finalized {
		return ErrFinalized
	}

	p.linkIndex = make(map[string]int, len(p.model.Links))
	for i, l := range p.model.Links {
		p.linkIndex[l.Name] = i
	}

	p.parent = make([]int, len(p.model.Links))
	for i := range p.parent {
		p.parent[i] = -1
	}
	for ji, j := range p.model.Joints {
		if _, ok := p.linkIndex[j.Parent]; !ok && j.Parent != "world" {
			return fmt.Errorf("%w: %q in joint %q", ErrUnknownLink, j.Parent, j.Name)
		}
		ci, ok := p.linkIndex[j.Child]
		if !ok {
			return fmt.Errorf("%w: %q in joint %q", ErrUnknownLink, j.Child, j.Name)
		}
		if p.parent[ci] != -1 {
			return fmt.Errorf("%w: %q", ErrMultiParent, j.Child)
		}
		p.parent[ci] = ji
		if j.Type != JointFixed {
			p.active = append(p.active, ji)
		}
	}

	if err := p.computeOrder(); err != nil {
		return err
	}
	p.finalized = true
	return nil
}

// computeOrder sorts links so every parent precedes its children, and
// rejects cycles.
func (p *Plant) computeOrder() error {
	const (
		unvisited = 0
		visiting  = 1
		done      = 2
	)
	state := make([]int, len(p.model.Links))
	p.order = p.order[:0]

	var visit func(li int) error
	visit = func(li int) error {
		switch state[li] {
		case done:
			return nil
		case visiting:
			return fmt.Errorf("%w: at link %q", ErrKinematicLoop, p.model.Links[li].Name)
		}
		state[li] = visiting
		if ji := p.parent[li]; ji != -1 {
			if pi, ok := p.linkIndex[p.model.Joints[ji].Parent]; ok {
				if err := visit(pi); err != nil {
					return err
				}
			}
		}
		state[li] = done
		p.order = append(p.order, li)
		return nil
	}

	for li := range p.model.Links {
		if err := visit(li); err != nil {
			return err
		}
	}
	return nil
}

func (p *Plant) NumPositions() int { return len(p.active) }

func (p *Plant) JointNames() []string {
	names := make([]string, len(p.active))
	for i, ji := range p.active {
		names[i] = p.model.Joints[ji].Name
	}
	return names
}

func (p *Plant) JointLimits(i int) (lower, upper float64) {
	j := p.model.Joints[p.active[i]]
	return j.Lower, j.Upper
}

// DefaultPositions is zero for every joint, clamped into its limits.
func (p *Plant) DefaultPositions() []float64 {
	q := make([]float64, len(p.active))
	for i := range q {
		lo, hi := p.JointLimits(i)
		if lo > 0 {
			q[i] = lo
		} else if hi < 0 {
			q[i] = hi
		}
	}
	return q
}

// LinkPose is a world pose of one named link.
type LinkPose struct {
	Link string
	Pose Pose
}

// CalcLinkPoses runs forward kinematics at the joint positions q and
// returns a world pose per link, parents first.
func (p *Plant) CalcLinkPoses(q []float64) ([]LinkPose, error) {
	if !p.finalized {
		return nil, ErrNotFinalized
	}
	if len(q) != len(p.active) {
		return nil, fmt.Errorf("multibody: have %d positions, want %d", len(q), len(p.active))
	}

	qByJoint := make(map[int]float64, len(p.active))
	for i, ji := range p.active {
		qByJoint[ji] = q[i]
	}

	world := make([]Pose, len(p.model.Links))
	out := make([]LinkPose, 0, len(p.model.Links))
	for _, li := range p.order {
		link := p.model.Links[li]
		pose := link.Pose

		if ji := p.parent[li]; ji != -1 {
			j := p.model.Joints[ji]
			base := Identity()
			if pi, ok := p.linkIndex[j.Parent]; ok {
				base = world[pi]
			}
			pose = base.Mul(j.Pose).Mul(jointMotion(j, qByJoint[ji])).Mul(link.Pose)
		}

		world[li] = pose
		out = append(out, LinkPose{Link: link.Name, Pose: pose})
	}
	return out, nil
}

func jointMotion(j Joint, q float64) Pose {
	switch j.Type {
	case JointRevolute:
		return AxisAngle(j.Axis, q)
	case JointPrismatic:
		return Translation(q*j.Axis[0], q*j.Axis[1], q*j.Axis[2])
	}
	return Identity()
}

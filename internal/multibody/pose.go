package multibody

import "math"

// Pose is a rigid transform: rotation then translation.
type Pose struct {
	R [3][3]float64
	T [3]float64
}

func Identity() Pose {
	return Pose{R: [3][3]float64{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}}
}

func Translation(x, y, z float64) Pose {
	p := Identity()
	p.T = [3]float64{x, y, z}
	return p
}

func RotX(a float64) Pose {
	c, s := math.Cos(a), math.Sin(a)
	return Pose{R: [3][3]float64{{1, 0, 0}, {0, c, -s}, {0, s, c}}}
}

func RotY(a float64) Pose {
	c, s := math.Cos(a), math.Sin(a)
	return Pose{R: [3][3]float64{{c, 0, s}, {0, 1, 0}, {-s, 0, c}}}
}

func RotZ(a float64) Pose {
	c, s := math.Cos(a), math.Sin(a)
	return Pose{R: [3][3]float64{{c, -s, 0}, {s, c, 0}, {0, 0, 1}}}
}

// FromXYZRPY builds a pose from a translation and extrinsic roll, pitch,
// yaw angles, R = Rz(yaw) * Ry(pitch) * Rx(roll).
func FromXYZRPY(x, y, z, roll, pitch, yaw float64) Pose {
	p := RotZ(yaw).Mul(RotY(pitch)).Mul(RotX(roll))
	p.T = [3]float64{x, y, z}
	return p
}

// AxisAngle builds a rotation of angle a about the unit axis via the
// Rodrigues formula.
func AxisAngle(axis [3]float64, a float64) Pose {
	n := math.Sqrt(axis[0]*axis[0] + axis[1]*axis[1] + axis[2]*axis[2])
	if n == 0 {
		return Identity()
	}
	ux, uy, uz := axis[0]/n, axis[1]/n, axis[2]/n
	c, s := math.Cos(a), math.Sin(a)
	k := 1 - c
	return Pose{R: [3][3]float64{
		{c + ux*ux*k, ux*uy*k - uz*s, ux*uz*k + uy*s},
		{uy*ux*k + uz*s, c + uy*uy*k, uy*uz*k - ux*s},
		{uz*ux*k - uy*s, uz*uy*k + ux*s, c + uz*uz*k},
	}}
}

func (p Pose) Mul(q Pose) Pose {
	var out Pose
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			for k := 0; k < 3; k++ {
				out.R[i][j] += p.R[i][k] * q.R[k][j]
			}
		}
		out.T[i] = p.T[i]
		for k := 0; k < 3; k++ {
			out.T[i] += p.R[i][k] * q.T[k]
		}
	}
	return out
}

// Apply transforms a point.
func (p Pose) Apply(v [3]float64) [3]float64 {
	var out [3]float64
	for i := 0; i < 3; i++ {
		out[i] = p.T[i]
		for k := 0; k < 3; k++ {
			out[i] += p.R[i][k] * v[k]
		}
	}
	return out
}

// Matrix4 flattens the pose into a column-major 4x4 matrix, the layout
// three.js consumes.
func (p Pose) Matrix4() [16]float64 {
	return [16]float64{
		p.R[0][0], p.R[1][0], p.R[2][0], 0,
		p.R[0][1], p.R[1][1], p.R[2][1], 0,
		p.R[0][2], p.R[1][2], p.R[2][2], 0,
		p.T[0], p.T[1], p.T[2], 1,
	}
}

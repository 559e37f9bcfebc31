package utils

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// result in radians
func QuatToEuler(q mgl32.Quat) (e mgl32.Vec3) {
	sinr_cosp := float64(2 * (q.W*q.X() + q.Y()*q.Z()))
	cosr_cosp := float64(1 - 2*(q.X()*q.X()+q.Y()*q.Y()))

	e[0] = float32(math.Atan2(sinr_cosp, cosr_cosp))

	sinp := float64(2 * (q.W*q.Y() - q.Z()*q.X()))
	if math.Abs(sinp) >= 1 {
		e[1] = math.Pi / 2
		if sinp < 0 {
			e[1] *= -1
		}
	} else {
		e[1] = float32(math.Asin(sinp))
	}

	siny_cosp := float64(2 * (q.W*q.Z() + q.X()*q.Y()))
	cosy_cosp := float64(1 - 2*(q.Y()*q.Y()+q.Z()*q.Z()))
	e[2] = float32(math.Atan2(siny_cosp, cosy_cosp))

	return e
}

// DecomposeMat4 splits an affine matrix into translation, rotation
// (euler, degrees) and scale.
func DecomposeMat4(m mgl32.Mat4) (pos, rotation, scale mgl32.Vec3) {
	pos = m.Col(3).Vec3()
	scale = mgl32.Vec3{m.Col(0).Vec3().Len(), m.Col(1).Vec3().Len(), m.Col(2).Vec3().Len()}

	rot := m
	for i := 0; i < 3; i++ {
		if scale[i] != 0 {
			col := m.Col(i).Mul(1 / scale[i])
			rot.SetCol(i, col)
		}
	}
	rot.SetCol(3, mgl32.Vec4{0, 0, 0, 1})

	rotation = QuatToEuler(mgl32.Mat4ToQuat(rot)).Mul(180.0 / math.Pi)
	return pos, rotation, scale
}

// TransformPoint applies an affine matrix to a position.
func TransformPoint(m mgl32.Mat4, v mgl32.Vec3) mgl32.Vec3 {
	return m.Mul4x1(v.Vec4(1)).Vec3()
}

// IsSingular reports whether m has no usable inverse.
func IsSingular(m mgl32.Mat4) bool {
	det := m.Det()
	return det == 0 || math.IsNaN(float64(det)) || math.IsInf(float64(det), 0)
}

func FloatArray32to64(in []float32) []float64 {
	out := make([]float64, len(in))
	for i, v := range in {
		out[i] = float64(v)
	}
	return out
}

// Mat4ToFloat64 flattens a column-major matrix.
func Mat4ToFloat64(m mgl32.Mat4) []float64 {
	return FloatArray32to64(m[:])
}

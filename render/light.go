package render

import (
	"github.com/go-gl/mathgl/mgl32"
)

type LightType uint32

const (
	LightTypeAmbient     LightType = 0
	LightTypeHemisphere  LightType = 1
	LightTypeDirectional LightType = 2
)

// Light is one scene light. Ground is used by hemisphere lights only;
// Position by directional lights, which shine from Position towards the origin.
type Light struct {
	Type      LightType
	Color     mgl32.Vec3
	Ground    mgl32.Vec3
	Intensity float32
	Position  mgl32.Vec3
}

// irradiance sums the light reaching a surface with world normal n.
func irradiance(lights []Light, n mgl32.Vec3) mgl32.Vec3 {
	var sum mgl32.Vec3
	for _, l := range lights {
		switch l.Type {
		case LightTypeAmbient:
			sum = sum.Add(l.Color.Mul(l.Intensity))
		case LightTypeHemisphere:
			w := 0.5*n.Y() + 0.5
			c := l.Ground.Mul(1 - w).Add(l.Color.Mul(w))
			sum = sum.Add(c.Mul(l.Intensity))
		case LightTypeDirectional:
			if l.Position.Len() == 0 {
				continue
			}
			d := n.Dot(l.Position.Normalize())
			if d > 0 {
				sum = sum.Add(l.Color.Mul(l.Intensity * d))
			}
		}
	}
	return sum
}

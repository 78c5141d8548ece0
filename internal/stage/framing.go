// internal/stage/framing.go
//
// Pure framing geometry. Each helper derives camera or avatar placement from
// product bounds so shots scale with product size. All results are
// deterministic given their inputs.
package stage

import (
	"github.com/go-gl/mathgl/mgl32"
)

// ApproachPoint places a presenter on the floor at scale·radius from the
// bounds center, on the side facing `from`. Degenerate direction (standing
// inside the product) falls back to +Z.
func ApproachPoint(b ProductBounds, from mgl32.Vec3, scale float32) mgl32.Vec3 {
	dir := horizontalDir(from.Sub(b.Center))
	point := b.Center.Add(dir.Mul(b.Radius * scale))
	return mgl32.Vec3{point.X(), 0, point.Z()}
}

// FramingShot returns a camera position and look target that frame the
// product from the `from` side at distScale·radius and the given height.
func FramingShot(b ProductBounds, from mgl32.Vec3, distScale, height float32) (pos, look mgl32.Vec3) {
	dir := horizontalDir(from.Sub(b.Center))
	pos = b.Center.Add(dir.Mul(b.Radius * distScale))
	pos = mgl32.Vec3{pos.X(), height, pos.Z()}
	look = b.Center
	return pos, look
}

// TwoSubjectShot frames the product together with the guide standing beside
// it: the camera looks at the midpoint between the two and stands off
// perpendicular to their axis, scaled by the product radius.
func TwoSubjectShot(b ProductBounds, guidePos mgl32.Vec3, distScale, height float32) (pos, look mgl32.Vec3) {
	mid := b.Center.Add(guidePos).Mul(0.5)
	look = mgl32.Vec3{mid.X(), b.Center.Y() * 0.5, mid.Z()}

	axis := horizontalDir(guidePos.Sub(b.Center))
	// Perpendicular in the floor plane.
	side := mgl32.Vec3{-axis.Z(), 0, axis.X()}

	pos = mid.Add(side.Mul(b.Radius * distScale))
	pos = mgl32.Vec3{pos.X(), height, pos.Z()}
	return pos, look
}

// horizontalDir projects v onto the floor plane and normalizes it, falling
// back to +Z when the projection vanishes.
func horizontalDir(v mgl32.Vec3) mgl32.Vec3 {
	flat := mgl32.Vec3{v.X(), 0, v.Z()}
	if flat.Len() < 1e-5 {
		return mgl32.Vec3{0, 0, 1}
	}
	return flat.Normalize()
}

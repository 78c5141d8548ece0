package camera

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/normanking/ariashowroom/internal/async"
	"github.com/normanking/ariashowroom/internal/config"
)

const testDt = float32(1.0 / 60.0)

func newTestChoreographer() *Choreographer {
	cfg := config.DefaultConfig()
	return NewChoreographer(cfg.Camera, nil, zerolog.Nop())
}

func drive(c *Choreographer, seconds float32) {
	for elapsed := float32(0); elapsed < seconds; elapsed += testDt {
		c.Update(testDt)
	}
}

func TestTransitionArrivesExactlyAndResolves(t *testing.T) {
	c := newTestChoreographer()
	end := mgl32.Vec3{2, 1.5, -3}
	endLook := mgl32.Vec3{0, 0.5, -5}

	sig := c.TransitionTo(end, endLook, 2.0)
	require.Equal(t, ModeTransitioning, c.Mode())

	drive(c, 2.0)

	assert.Equal(t, end, c.Position())
	assert.Equal(t, endLook, c.Look())
	require.True(t, sig.Resolved())
	assert.Equal(t, async.Done, sig.Wait())
	assert.Equal(t, ModeIdle, c.Mode())
}

func TestSecondTransitionCancelsFirst(t *testing.T) {
	c := newTestChoreographer()

	first := c.TransitionTo(mgl32.Vec3{2, 1.5, -3}, mgl32.Vec3{0, 0.5, -5}, 2.0)
	drive(c, 0.2)

	second := c.TransitionTo(mgl32.Vec3{-3, 2, -2}, mgl32.Vec3{-4.5, 0.5, -3.5}, 1.0)
	require.True(t, first.Resolved(), "superseded transition resolves immediately")
	assert.Equal(t, async.Superseded, first.Wait())
	assert.False(t, second.Resolved())

	drive(c, 1.0)

	assert.Equal(t, async.Done, second.Wait())
	assert.Equal(t, mgl32.Vec3{-3, 2, -2}, c.Position())
	assert.Equal(t, async.Superseded, first.Wait(), "first outcome must not change")
}

func TestZeroDurationTransitionSnaps(t *testing.T) {
	c := newTestChoreographer()
	end := mgl32.Vec3{1, 2, 3}

	sig := c.TransitionTo(end, mgl32.Vec3{0, 0, 0}, 0)

	assert.Equal(t, end, c.Position())
	assert.Equal(t, async.Done, sig.Wait())
	assert.Equal(t, ModeIdle, c.Mode())
}

func TestPlayTourResolvesAfterSinglePass(t *testing.T) {
	c := newTestChoreographer()
	home := c.Position()
	path, looks := OrbitShot(mgl32.Vec3{0, 0, -5}, 3, 1.5, 6, 0, 0.18, 0.12)

	sig := c.PlayTour(path, looks, 1.5)
	require.Equal(t, ModeTouring, c.Mode())

	drive(c, 1.5)

	require.True(t, sig.Resolved())
	assert.Equal(t, async.Done, sig.Wait())
	assert.Equal(t, ModeIdle, c.Mode())
	assert.Greater(t, c.Position().Sub(home).Len(), float32(2.0), "camera should have chased the tour path")
}

func TestStopTourResolvesPendingSignal(t *testing.T) {
	c := newTestChoreographer()
	path, looks := OrbitShot(mgl32.Vec3{0, 0, -5}, 3, 1.5, 6, 0, 0.18, 0.12)

	sig := c.PlayTour(path, looks, 10)
	drive(c, 0.2)

	c.StopTour()

	require.True(t, sig.Resolved())
	assert.Equal(t, async.Stopped, sig.Wait())
	assert.Equal(t, ModeIdle, c.Mode())
}

func TestLoopingTourRunsUntilStopped(t *testing.T) {
	c := newTestChoreographer()
	path, looks := OrbitShot(mgl32.Vec3{0, 0, -5}, 3, 1.5, 6, 0, 0.18, 0.12)

	c.StartTour(path, looks, TourOptions{Duration: 1.0, Loop: true})
	drive(c, 2.5)

	assert.Equal(t, ModeTouring, c.Mode(), "looping tour must survive past its period")
	c.StopTour()
	assert.Equal(t, ModeIdle, c.Mode())
}

func TestPlayTourRejectsDegenerateInput(t *testing.T) {
	c := newTestChoreographer()

	sig := c.PlayTour(nil, nil, 5)

	assert.Equal(t, async.Skipped, sig.Wait())
	assert.Equal(t, ModeIdle, c.Mode())
}

func TestModeSwitchResolvesPendingCompletion(t *testing.T) {
	c := newTestChoreographer()

	sig := c.TransitionTo(mgl32.Vec3{2, 1.5, -3}, mgl32.Vec3{0, 0.5, -5}, 5.0)
	drive(c, 0.1)

	c.EnableOrbit(mgl32.Vec3{0, 0.5, -5}, OrbitOptions{Radius: 2})

	require.True(t, sig.Resolved(), "mode switch must not drop the pending signal")
	assert.Equal(t, async.Superseded, sig.Wait())
	assert.Equal(t, ModeOrbiting, c.Mode())
}

func TestInterruptIdlesCameraInPlace(t *testing.T) {
	c := newTestChoreographer()

	sig := c.TransitionTo(mgl32.Vec3{2, 1.5, -3}, mgl32.Vec3{0, 0.5, -5}, 5.0)
	drive(c, 0.5)
	pos := c.Position()

	c.Interrupt(async.Superseded)

	assert.Equal(t, async.Superseded, sig.Wait())
	assert.Equal(t, ModeIdle, c.Mode())
	assert.Equal(t, pos, c.Position(), "interrupt must not move the camera")
}

func TestOrbitClampsDistanceAndPolarBand(t *testing.T) {
	cfg := config.DefaultConfig()
	c := newTestChoreographer()
	target := mgl32.Vec3{0, 0.5, -5}

	// Home is ~12 units out; radius 2 caps the orbit at 2*3.8=7.6.
	c.EnableOrbit(target, OrbitOptions{Radius: 2})
	c.Update(testDt)

	dist := c.Position().Sub(target).Len()
	assert.InDelta(t, 7.6, float64(dist), 1e-3)
	assert.Equal(t, target, c.Look())

	before := c.Position()
	c.ApplyOrbitDrag(200, 0)
	c.Update(testDt)
	after := c.Position()
	assert.Greater(t, after.Sub(before).Len(), float32(1.0), "azimuth drag should swing the camera")
	assert.InDelta(t, 7.6, float64(after.Sub(target).Len()), 1e-3, "drag must not change distance")

	// A huge vertical drag must stay inside the polar band around activation.
	c.ApplyOrbitDrag(0, 5000)
	c.Update(testDt)
	offset := c.Position().Sub(target)
	cosPhi := offset.Y() / offset.Len()
	maxRise := cos32(1.471 - cfg.Camera.PolarBand/2 - 0.01)
	assert.LessOrEqual(t, cosPhi, maxRise, "polar angle escaped its band")
}

func TestOrbitZoomStaysWithinBounds(t *testing.T) {
	c := newTestChoreographer()
	target := mgl32.Vec3{0, 0.5, -5}

	c.EnableOrbit(target, OrbitOptions{Radius: 2})
	c.Update(testDt)

	c.ApplyOrbitZoom(10)
	c.Update(testDt)
	assert.InDelta(t, 6.4, float64(c.Position().Sub(target).Len()), 1e-3)

	// Zooming far past the minimum clamps at 2*1.5=3.
	c.ApplyOrbitZoom(1000)
	c.Update(testDt)
	assert.InDelta(t, 3.0, float64(c.Position().Sub(target).Len()), 1e-3)
}

func TestDisableOrbitKeepsAimOnPivot(t *testing.T) {
	c := newTestChoreographer()
	target := mgl32.Vec3{0, 0.5, -5}

	c.EnableOrbit(target, OrbitOptions{Radius: 2})
	c.ApplyOrbitDrag(150, 30)
	c.Update(testDt)

	c.DisableOrbit()

	assert.Equal(t, ModeIdle, c.Mode())
	assert.Equal(t, target, c.Look())
}

func TestFollowLeadsWalkingAvatar(t *testing.T) {
	c := newTestChoreographer()
	avatarPos := mgl32.Vec3{0, 0, 2}
	c.SetAvatarTracker(func() mgl32.Vec3 { return avatarPos })

	c.FollowAvatar(true)
	require.Equal(t, ModeFollowing, c.Mode())

	for i := 0; i < 120; i++ {
		avatarPos[2] -= 1.1 * testDt
		c.Update(testDt)
	}

	// The aim should sit ahead of the avatar along its direction of travel.
	assert.Less(t, c.Look().Z(), avatarPos.Z()-0.4)
	// The camera keeps trailing roughly at its enable-time offset.
	assert.InDelta(t, float64(avatarPos.Z()+5), float64(c.Position().Z()), 1.5)

	c.FollowAvatar(false)
	assert.Equal(t, ModeIdle, c.Mode())
}

func TestFollowWithoutTrackerIsIgnored(t *testing.T) {
	c := newTestChoreographer()

	c.FollowAvatar(true)

	assert.Equal(t, ModeIdle, c.Mode())
}

func TestTransitionHomeAimsAtGuideGround(t *testing.T) {
	cfg := config.DefaultConfig()
	c := newTestChoreographer()
	c.SetAvatarTracker(func() mgl32.Vec3 { return mgl32.Vec3{0, 0, -5} })

	// Park the camera away from home first.
	c.TransitionTo(mgl32.Vec3{4, 2, -4}, mgl32.Vec3{0, 1, -5}, 0)

	sig := c.TransitionHome(2.0)
	require.Equal(t, ModeTransitioning, c.Mode())

	drive(c, 2.0)

	assert.Equal(t, mgl32.Vec3(cfg.Camera.HomePosition), c.Position())
	look := c.Look()
	assert.InDelta(t, 0, float64(look.X()), 0.01)
	assert.InDelta(t, float64(cfg.Camera.ReturnGroundHeight), float64(look.Y()), 0.01)
	assert.InDelta(t, -5, float64(look.Z()), 0.01)
	assert.Equal(t, async.Done, sig.Wait())
	assert.Equal(t, ModeIdle, c.Mode())
}

func TestDragIgnoredOutsideOrbit(t *testing.T) {
	c := newTestChoreographer()
	pos := c.Position()

	c.ApplyOrbitDrag(500, 500)
	c.ApplyOrbitZoom(50)
	c.Update(testDt)

	assert.Equal(t, pos, c.Position())
}

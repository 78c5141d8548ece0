package director

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"

	"github.com/normanking/ariashowroom/internal/async"
	"github.com/normanking/ariashowroom/internal/bus"
	"github.com/normanking/ariashowroom/internal/camera"
	"github.com/normanking/ariashowroom/internal/stage"
)

// runWorkflow executes one request end to end. Every externally observable
// step re-checks the request's token so a superseded workflow goes quiet
// instead of driving stale camera or UI changes.
func (d *Director) runWorkflow(req CollectionRequest, token *async.Token) {
	defer d.finishWorkflow()

	if req.CollectionID == "" {
		d.runReturn(req, token)
		return
	}
	d.runPresentation(req, token)
}

func (d *Director) runPresentation(req CollectionRequest, token *async.Token) {
	d.mu.Lock()
	catalog := d.catalog
	d.mu.Unlock()

	product, ok := catalog.Product(req.CollectionID)
	if !ok {
		d.log.Warn().Str("collection", req.CollectionID).Msg("Collection vanished from catalog")
		return
	}

	log := d.log.With().Uint64("request", req.ID).Str("collection", req.CollectionID).Logger()
	log.Info().Str("source", req.Source).Msg("Presentation started")

	// Whatever scripted move or cinematic is still running belongs to an
	// older request.
	d.step(req, "interrupt")
	d.cam.Interrupt(async.Superseded)
	d.player.Stop()

	d.step(req, "fade_ui")
	d.hidePanels()

	d.step(req, "prepare_narration")
	if err := d.player.Prepare(product.NarrationTrack); err != nil {
		log.Warn().Err(err).Str("track", product.NarrationTrack).Msg("Narration unavailable, presenting silent")
	}
	if token.Cancelled() {
		return
	}

	d.step(req, "walk")
	approach := catalog.ApproachPoint(product, d.guide.Position())
	walk := d.guide.WalkTo(approach)
	d.cam.FollowAvatar(true)
	outcome := walk.Wait()
	d.cam.FollowAvatar(false)
	if outcome == async.Skipped {
		log.Debug().Msg("Guide not ready, presenting camera-only")
	}
	if token.Cancelled() {
		return
	}

	d.step(req, "framing")
	pos, look := stage.FramingShot(product.Bounds, d.cam.Position(),
		d.cfg.Cinematic.FramingDistanceScale, d.cfg.Cinematic.FramingHeight)
	d.cam.TransitionTo(pos, look, d.cfg.Cinematic.RevealDuration).Wait()
	if token.Cancelled() {
		return
	}

	d.step(req, "cinematic")
	session := &CinematicSession{
		ID:           uuid.NewString(),
		CollectionID: req.CollectionID,
		stop:         async.NewSignal(),
	}
	d.mu.Lock()
	d.session = session
	d.mu.Unlock()

	d.showSubtitle(product.NarrationTrack)
	d.setStopVisible(true)
	d.publish(bus.EventTypeCinematicStarted, map[string]any{
		"session":    session.ID,
		"collection": req.CollectionID,
	})

	narDone := d.player.Play(product.NarrationTrack)

	center := product.Bounds.Center
	startAngle := camera.BearingAround(center, d.cam.Position())
	path, looks := camera.OrbitShot(center,
		product.Bounds.Radius*d.cfg.Cinematic.OrbitRadiusScale,
		d.cfg.Cinematic.OrbitHeight,
		d.cfg.Cinematic.OrbitSegments,
		startAngle,
		d.cfg.Cinematic.LiftAmplitude,
		d.cfg.Cinematic.JitterAmplitude)
	tourDone := d.cam.PlayTour(path, looks, d.cfg.Cinematic.OrbitDuration)

	// Narration and tour run together, racing a manual stop.
	both := async.NewSignal()
	go func() {
		async.WaitAll(narDone, tourDone)
		both.Resolve(async.Done)
	}()
	async.WaitAny(both, session.stop)

	// Resolving the stop signal here makes it inert; if that fails the
	// visitor beat us to it.
	natural := session.stop.Resolve(async.Done)
	if !natural {
		d.player.Stop()
		d.cam.StopTour()
	}

	d.mu.Lock()
	d.session = nil
	d.mu.Unlock()
	d.clearSubtitle()
	d.setStopVisible(false)

	if token.Cancelled() {
		d.publish(bus.EventTypeCinematicStopped, map[string]any{
			"session":    session.ID,
			"collection": req.CollectionID,
			"reason":     "superseded",
		})
		return
	}
	if natural {
		d.publish(bus.EventTypeCinematicStopped, map[string]any{
			"session":    session.ID,
			"collection": req.CollectionID,
			"reason":     "completed",
		})
	}

	d.step(req, "settle")
	pos, look = stage.TwoSubjectShot(product.Bounds, d.guide.Position(),
		d.cfg.Cinematic.FramingDistanceScale, d.cfg.Cinematic.FramingHeight)
	d.cam.TransitionTo(pos, look, d.cfg.Cinematic.SettleDuration).Wait()
	if token.Cancelled() {
		return
	}

	d.step(req, "reveal")
	d.cam.EnableOrbit(center, camera.OrbitOptions{Radius: product.Bounds.Radius})
	d.showPanel(req.CollectionID)

	d.mu.Lock()
	d.activeCollection = req.CollectionID
	d.mu.Unlock()

	log.Info().Msg("Presentation completed")
	d.publishSync(bus.EventTypeRequestCompleted, requestData(req))
}

// runReturn walks the guide to the room anchor while the camera eases back
// to its home pose, aim tracking the guide's ground point on the way.
func (d *Director) runReturn(req CollectionRequest, token *async.Token) {
	d.mu.Lock()
	catalog := d.catalog
	d.mu.Unlock()

	log := d.log.With().Uint64("request", req.ID).Logger()
	log.Info().Str("source", req.Source).Msg("Returning to overview")

	d.step(req, "interrupt")
	d.cam.Interrupt(async.Superseded)
	d.player.Stop()

	d.step(req, "fade_ui")
	d.hidePanels()

	d.step(req, "walk_home")
	walk := d.guide.WalkTo(catalog.Anchor())
	home := d.cam.TransitionHome(d.cfg.Cinematic.RevealDuration)
	async.WaitAll(walk, home)
	if token.Cancelled() {
		return
	}

	d.mu.Lock()
	d.activeCollection = ""
	d.mu.Unlock()

	log.Info().Msg("Overview restored")
	d.publishSync(bus.EventTypeRequestCompleted, requestData(req))
}

// runIntro plays the scripted opening shots, racing each camera move against
// the skip signal. A skip jumps straight to the closing shot.
func (d *Director) runIntro(skip *async.Signal) {
	defer d.finishIntro(skip)

	shots := d.cfg.Intro.Shots
	d.log.Info().Int("shots", len(shots)).Msg("Intro started")
	d.publish(bus.EventTypeIntroStarted, map[string]any{"shots": len(shots)})

	d.player.Play(d.cfg.Intro.NarrationTrack)
	d.showSubtitle(d.cfg.Intro.NarrationTrack)

	skipped := false
	for _, shot := range shots {
		move := d.cam.TransitionTo(mgl32.Vec3(shot.Position), mgl32.Vec3(shot.Look), shot.Duration)
		idx, outcome := async.WaitAny(move, skip)
		if idx == 1 || outcome != async.Done {
			skipped = true
			break
		}
	}

	d.player.Stop()
	d.clearSubtitle()

	if skipped {
		closing := shots[len(shots)-1]
		d.cam.TransitionTo(mgl32.Vec3(closing.Position), mgl32.Vec3(closing.Look), introSkipDuration).Wait()
		d.log.Info().Msg("Intro skipped")
		d.publish(bus.EventTypeIntroSkipped, nil)
	}
}

// finishIntro releases the skip signal, tells the UI the intro is over, and
// starts any request queued while it played.
func (d *Director) finishIntro(skip *async.Signal) {
	skip.Resolve(async.Done)

	if p := d.ui(); p != nil {
		p.IntroDone()
	}
	d.publish(bus.EventTypeIntroDone, nil)

	d.mu.Lock()
	d.skipIntro = nil
	next := d.pending
	d.pending = nil
	if next == nil {
		d.state = StateIdle
		d.mu.Unlock()
		d.log.Info().Msg("Intro finished")
		return
	}
	token := d.startLocked(next)
	d.mu.Unlock()

	d.log.Debug().Uint64("request", next.ID).Msg("Starting request queued during intro")
	go d.runWorkflow(*next, token)
}

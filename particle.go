package stagehand

import (
	"math"
	"math/rand/v2"

	"github.com/hajimehoshi/ebiten/v2"
	"go.uber.org/zap"
)

// Range is a closed interval sampled uniformly.
type Range struct {
	Min, Max float64
}

// Random returns a random float64 in [Min, Max].
func (r Range) Random() float64 {
	if r.Min == r.Max {
		return r.Min
	}
	return r.Min + rand.Float64()*(r.Max-r.Min)
}

// particle holds per-particle simulation state.
type particle struct {
	x, y       float64
	vx, vy     float64
	life       float64 // remaining lifetime in seconds
	maxLife    float64
	startScale float64
	endScale   float64
	scale      float64
	startAlpha float64
	endAlpha   float64
	alpha      float64
	color      Color
}

// EmitterConfig controls how particles are spawned and behave.
type EmitterConfig struct {
	// MaxParticles is the pool size. Spawns are dropped when it is full.
	MaxParticles int
	// EmitRate is particles per second while emitting.
	EmitRate float64
	// Lifetime is in seconds.
	Lifetime Range
	// Speed is in pixels per second.
	Speed Range
	// Angle is the emission direction in degrees, clockwise from +X.
	Angle      Range
	StartScale Range
	EndScale   Range
	StartAlpha Range
	EndAlpha   Range
	// Gravity is an acceleration in pixels per second squared.
	Gravity    Vec2
	StartColor Color
	EndColor   Color
	// TextureKey draws each particle with a loaded image. Empty draws
	// Size×Size squares.
	TextureKey string
	Size       float64
	Blend      BlendMode
	// WorldSpace keeps emitted particles where they were spawned instead of
	// moving with the emitter.
	WorldSpace bool
}

// ParticleEmitter simulates a pool of particles on the CPU, one step per
// logic tick.
type ParticleEmitter struct {
	Actor

	Config EmitterConfig

	particles []particle
	alive     int
	emitAccum float64
	emitting  bool
	texture   *ImageTexture
}

// NewParticleEmitter creates an emitter at (x, y) with a preallocated pool.
// It starts stopped.
func NewParticleEmitter(x, y float64, cfg EmitterConfig) *ParticleEmitter {
	n := cfg.MaxParticles
	if n <= 0 {
		n = 128
	}
	if cfg.Size <= 0 {
		cfg.Size = 4
	}
	p := &ParticleEmitter{Config: cfg, particles: make([]particle, n)}
	p.Defaults()
	p.X, p.Y = x, y
	return p
}

// Start begins emitting.
func (p *ParticleEmitter) Start() { p.emitting = true }

// Stop ends emitting. Live particles run out their lifetime.
func (p *ParticleEmitter) Stop() { p.emitting = false }

// Reset stops emitting and kills every particle.
func (p *ParticleEmitter) Reset() {
	p.emitting = false
	p.alive = 0
	p.emitAccum = 0
}

// Emitting reports whether the emitter is spawning particles.
func (p *ParticleEmitter) Emitting() bool { return p.emitting }

// AliveCount returns the number of live particles.
func (p *ParticleEmitter) AliveCount() int { return p.alive }

// Burst spawns up to n particles at once.
func (p *ParticleEmitter) Burst(n int) {
	for range n {
		if p.alive >= len(p.particles) {
			return
		}
		p.spawn()
	}
}

func (p *ParticleEmitter) Update() {
	dt := 1 / float64(defaultFPS)
	if p.ctx != nil {
		dt = float64(p.ctx.TickSeconds())
	}
	p.step(dt)
}

// spawnOrigin is where new particles start, in the emitter's local space
// or in world space.
func (p *ParticleEmitter) spawnOrigin() (float64, float64) {
	if p.Config.WorldSpace {
		return p.WorldPosition()
	}
	return 0, 0
}

// step advances the simulation by dt seconds.
func (p *ParticleEmitter) step(dt float64) {
	gx := p.Config.Gravity.X * dt
	gy := p.Config.Gravity.Y * dt

	i := 0
	for i < p.alive {
		pt := &p.particles[i]
		pt.life -= dt
		if pt.life <= 0 {
			p.alive--
			p.particles[i] = p.particles[p.alive]
			continue
		}
		pt.vx += gx
		pt.vy += gy
		pt.x += pt.vx * dt
		pt.y += pt.vy * dt

		t := 1 - pt.life/pt.maxLife
		pt.scale = lerp(pt.startScale, pt.endScale, t)
		pt.alpha = lerp(pt.startAlpha, pt.endAlpha, t)
		pt.color = Color{
			R: lerp(p.Config.StartColor.R, p.Config.EndColor.R, t),
			G: lerp(p.Config.StartColor.G, p.Config.EndColor.G, t),
			B: lerp(p.Config.StartColor.B, p.Config.EndColor.B, t),
			A: 1,
		}
		i++
	}

	if p.emitting && p.Config.EmitRate > 0 {
		p.emitAccum += p.Config.EmitRate * dt
		for p.emitAccum >= 1 {
			p.emitAccum--
			if p.alive < len(p.particles) {
				p.spawn()
			}
		}
	}
}

// spawn initializes the particle at slot p.alive.
func (p *ParticleEmitter) spawn() {
	cfg := &p.Config
	pt := &p.particles[p.alive]

	angle := cfg.Angle.Random() * math.Pi / 180
	speed := cfg.Speed.Random()
	pt.vx = math.Cos(angle) * speed
	pt.vy = math.Sin(angle) * speed
	pt.x, pt.y = p.spawnOrigin()

	pt.life = cfg.Lifetime.Random()
	if pt.life <= 0 {
		pt.life = 1
	}
	pt.maxLife = pt.life

	pt.startScale = cfg.StartScale.Random()
	pt.endScale = cfg.EndScale.Random()
	pt.scale = pt.startScale
	pt.startAlpha = cfg.StartAlpha.Random()
	pt.endAlpha = cfg.EndAlpha.Random()
	pt.alpha = pt.startAlpha
	pt.color = cfg.StartColor
	pt.color.A = 1

	p.alive++
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

func (p *ParticleEmitter) resolve() *ImageTexture {
	if p.texture != nil || p.Config.TextureKey == "" || p.ctx == nil {
		return p.texture
	}
	switch t := p.ctx.Loader.Get(p.Config.TextureKey).(type) {
	case *ImageTexture:
		p.texture = t
	case *Spritesheet:
		p.texture = &t.ImageTexture
	default:
		p.ctx.Log.Warn("particle texture not found", zap.String("key", p.Config.TextureKey), zap.String("entity", p.ID))
		p.Config.TextureKey = ""
	}
	return p.texture
}

// Draw renders live particles centered on their positions, then children.
func (p *ParticleEmitter) Draw(vx, vy, vw, vh int) {
	ctx := p.ctx
	if ctx == nil || !p.Visible || p.destroyed {
		return
	}
	if target := ctx.Target; target != nil && p.alive > 0 {
		src, w, h := WhitePixel, 1.0, 1.0
		size := p.Config.Size
		if tex := p.resolve(); tex != nil {
			src, w, h = tex.Image, float64(tex.Width), float64(tex.Height)
			size = 1
		}
		sx, sy := ctx.State.ScreenPosition(&p.Entity, vx, vy)
		zx, zy := ctx.State.ZoomX*p.ScaleX, ctx.State.ZoomY*p.ScaleY
		ox, oy := 0.0, 0.0
		if p.Config.WorldSpace {
			ox, oy = p.WorldPosition()
		}
		alpha := ctx.State.EffectiveAlpha(&p.Entity)
		op := &ebiten.DrawImageOptions{Blend: p.Config.Blend.EbitenBlend()}
		for i := range p.alive {
			pt := &p.particles[i]
			op.GeoM.Reset()
			op.GeoM.Translate(-w/2, -h/2)
			op.GeoM.Scale(pt.scale*size*zx, pt.scale*size*zy)
			op.GeoM.Translate(sx+(pt.x-ox)*zx, sy+(pt.y-oy)*zy)
			op.ColorScale = colorScale(pt.color, alpha*clamp01(pt.alpha))
			target.DrawImage(src, op)
		}
	}
	p.Actor.Draw(vx, vy, vw, vh)
}

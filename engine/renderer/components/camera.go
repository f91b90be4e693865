package components

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/spaghettifunk/toybricks/engine/core"
	kmath "github.com/spaghettifunk/toybricks/engine/math"
)

/** @brief Default lens and placement of the scene camera. */
const (
	DefaultFOV       float32 = 45.0
	DefaultNear      float32 = 0.1
	DefaultFar       float32 = 10.0
	DefaultMoveSpeed float32 = 2.0
	DefaultTurnSpeed float32 = 1.5
)

var (
	defaultPosition = mgl32.Vec3{2, 2, 2}
	defaultTarget   = mgl32.Vec3{0, 0, 0}
	defaultUp       = mgl32.Vec3{0, 0, 1}
)

// pitchLimit keeps the camera off the up axis (89 degrees).
const pitchLimit = float32(1.55334306)

/**
 * @brief A first-person camera looking at a target point. Position and
 * target move together when translating; yaw and pitch orbit the position
 * around the target.
 */
type Camera struct {
	/**
	 * @brief The position of this camera.
	 * NOTE: use SetPosition so the view matrix is rebuilt.
	 */
	Position mgl32.Vec3
	/** @brief The point the camera looks at. */
	Target mgl32.Vec3
	/** @brief World up. */
	Up mgl32.Vec3

	/** @brief Vertical field of view in degrees. */
	FOV       float32
	Near      float32
	Far       float32
	MoveSpeed float32
	TurnSpeed float32

	/** @brief Internal flag used to determine when the view matrix needs to be rebuilt. */
	IsDirty    bool
	ViewMatrix mgl32.Mat4
}

func NewCamera() *Camera {
	camera := &Camera{
		FOV:       DefaultFOV,
		Near:      DefaultNear,
		Far:       DefaultFar,
		MoveSpeed: DefaultMoveSpeed,
		TurnSpeed: DefaultTurnSpeed,
	}
	camera.Reset()
	return camera
}

// Reset restores the default placement. Lens and speeds are kept.
func (c *Camera) Reset() {
	c.Position = defaultPosition
	c.Target = defaultTarget
	c.Up = defaultUp
	c.IsDirty = true
}

func (c *Camera) SetPosition(position mgl32.Vec3) {
	c.Position = position
	c.IsDirty = true
}

func (c *Camera) SetTarget(target mgl32.Vec3) {
	c.Target = target
	c.IsDirty = true
}

func (c *Camera) GetView() mgl32.Mat4 {
	if c.IsDirty {
		c.ViewMatrix = mgl32.LookAtV(c.Position, c.Target, c.Up)
		c.IsDirty = false
	}
	return c.ViewMatrix
}

// Projection is a right-handed perspective with clip-space Y pointing down.
func (c *Camera) Projection(aspect float32) mgl32.Mat4 {
	proj := mgl32.Perspective(mgl32.DegToRad(c.FOV), aspect, c.Near, c.Far)
	proj.Set(1, 1, -proj.At(1, 1))
	return proj
}

func (c *Camera) Forward() mgl32.Vec3 {
	return c.Target.Sub(c.Position).Normalize()
}

func (c *Camera) Backward() mgl32.Vec3 {
	return c.Forward().Mul(-1)
}

func (c *Camera) Right() mgl32.Vec3 {
	return c.Forward().Cross(c.Up).Normalize()
}

func (c *Camera) Left() mgl32.Vec3 {
	return c.Right().Mul(-1)
}

func (c *Camera) translate(direction mgl32.Vec3, amount float32) {
	delta := direction.Mul(amount)
	c.Position = c.Position.Add(delta)
	c.Target = c.Target.Add(delta)
	c.IsDirty = true
}

func (c *Camera) MoveForward(amount float32)  { c.translate(c.Forward(), amount) }
func (c *Camera) MoveBackward(amount float32) { c.translate(c.Backward(), amount) }
func (c *Camera) MoveLeft(amount float32)     { c.translate(c.Left(), amount) }
func (c *Camera) MoveRight(amount float32)    { c.translate(c.Right(), amount) }
func (c *Camera) MoveUp(amount float32)       { c.translate(c.Up.Normalize(), amount) }
func (c *Camera) MoveDown(amount float32)     { c.translate(c.Up.Normalize(), -amount) }

// Yaw orbits the camera around the target about the up axis.
func (c *Camera) Yaw(amount float32) {
	offset := c.Position.Sub(c.Target)
	offset = mgl32.QuatRotate(amount, c.Up.Normalize()).Rotate(offset)
	c.Position = c.Target.Add(offset)
	c.IsDirty = true
}

// Elevation is the angle between the view offset and the horizontal plane.
func (c *Camera) Elevation() float32 {
	offset := c.Position.Sub(c.Target)
	if offset.Len() == 0 {
		return 0
	}
	sin := kmath.Clamp(offset.Normalize().Dot(c.Up.Normalize()), -1, 1)
	return float32(math.Asin(float64(sin)))
}

// Pitch raises or lowers the camera around the target, clamped to 89 degrees.
func (c *Camera) Pitch(amount float32) {
	offset := c.Position.Sub(c.Target)
	axis := offset.Cross(c.Up)
	if axis.Len() == 0 {
		return
	}
	current := c.Elevation()
	next := kmath.Clamp(current+amount, -pitchLimit, pitchLimit)
	offset = mgl32.QuatRotate(next-current, axis.Normalize()).Rotate(offset)
	c.Position = c.Target.Add(offset)
	c.IsDirty = true
}

// HandleInput applies keyboard navigation for one frame of deltaTime seconds.
func (c *Camera) HandleInput(input *core.InputState, deltaTime float64) {
	move := c.MoveSpeed * float32(deltaTime)
	turn := c.TurnSpeed * float32(deltaTime)

	if input.KeyPressed(core.KEY_R) {
		c.Reset()
		return
	}
	if input.IsKeyDown(core.KEY_W) {
		c.MoveForward(move)
	}
	if input.IsKeyDown(core.KEY_S) {
		c.MoveBackward(move)
	}
	if input.IsKeyDown(core.KEY_A) {
		c.MoveLeft(move)
	}
	if input.IsKeyDown(core.KEY_D) {
		c.MoveRight(move)
	}
	if input.IsKeyDown(core.KEY_SPACE) {
		c.MoveUp(move)
	}
	if input.IsKeyDown(core.KEY_LEFT_CONTROL) {
		c.MoveDown(move)
	}
	if input.IsKeyDown(core.KEY_LEFT) {
		c.Yaw(turn)
	}
	if input.IsKeyDown(core.KEY_RIGHT) {
		c.Yaw(-turn)
	}
	if input.IsKeyDown(core.KEY_UP) {
		c.Pitch(turn)
	}
	if input.IsKeyDown(core.KEY_DOWN) {
		c.Pitch(-turn)
	}
}

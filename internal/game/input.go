package game

// Input packs one player's controls for a single frame into a byte so the
// wire protocol and the rollback buffers can treat inputs as plain values.
type Input uint8

const (
	InputLeft  Input = 1 << 0
	InputRight Input = 1 << 1
	InputDash  Input = 1 << 2
)

// EncodeInput folds the pressed controls into an Input byte.
func EncodeInput(left, right, dash bool) Input {
	var in Input
	if left {
		in |= InputLeft
	}
	if right {
		in |= InputRight
	}
	if dash {
		in |= InputDash
	}
	return in
}

func (i Input) Left() bool {
	return i&InputLeft != 0
}

func (i Input) Right() bool {
	return i&InputRight != 0
}

func (i Input) Dash() bool {
	return i&InputDash != 0
}

// Turn resolves the rotation sign for this input: positive turns left,
// negative turns right, zero when neither or both directions are held.
func (i Input) Turn() float64 {
	turn := 0.0
	if i.Right() {
		turn -= 1
	}
	if i.Left() {
		turn += 1
	}
	return turn
}

// Key identifies a physical control. The ids follow DOM KeyboardEvent
// codes so browser and terminal front ends can share binding tables.
type Key string

const (
	KeyArrowLeft  Key = "ArrowLeft"
	KeyArrowRight Key = "ArrowRight"
	KeyA          Key = "KeyA"
	KeyD          Key = "KeyD"
	KeySpace      Key = "Space"
	KeyEnter      Key = "Enter"
)

// KeyState is the device boundary: whatever polls the keyboard reports
// whether a physical key is currently held.
type KeyState interface {
	Pressed(Key) bool
}

// KeyStateFunc adapts functions into the KeyState interface.
type KeyStateFunc func(Key) bool

// Pressed implements KeyState for KeyStateFunc.
func (f KeyStateFunc) Pressed(key Key) bool {
	if f == nil {
		return false
	}
	return f(key)
}

// Bindings maps each logical control to the physical keys that trigger
// it. Any bound key activates the control.
type Bindings struct {
	Left  []Key
	Right []Key
	Dash  []Key
}

// DefaultBindings pairs each control with its arrow and letter keys.
func DefaultBindings() Bindings {
	return Bindings{
		Left:  []Key{KeyArrowLeft, KeyA},
		Right: []Key{KeyArrowRight, KeyD},
		Dash:  []Key{KeySpace, KeyEnter},
	}
}

// Encode folds the currently pressed controls into an Input symbol.
func (b Bindings) Encode(state KeyState) Input {
	return EncodeInput(anyPressed(state, b.Left), anyPressed(state, b.Right), anyPressed(state, b.Dash))
}

func anyPressed(state KeyState, keys []Key) bool {
	if state == nil {
		return false
	}
	for _, key := range keys {
		if state.Pressed(key) {
			return true
		}
	}
	return false
}

package terminal

// MouseButton represents mouse button identity
type MouseButton uint8

const (
	MouseBtnNone MouseButton = iota
	MouseBtnLeft
	MouseBtnMiddle
	MouseBtnRight
	MouseBtnWheelUp
	MouseBtnWheelDown
	MouseBtnWheelLeft
	MouseBtnWheelRight
)

// MouseAction represents the type of mouse event
type MouseAction uint8

const (
	MouseActionNone MouseAction = iota
	MouseActionPress
	MouseActionRelease
	MouseActionMove
	MouseActionDrag
)

// MouseMode controls which mouse events are reported
type MouseMode uint8

const (
	MouseNone  MouseMode = iota // No reporting
	MouseClick                  // Press and release
	MouseDrag                   // Press, release and motion while pressed
	MouseAll                    // Every motion event
)

// MouseTracking is the xterm tracking protocol requested for a mode
type MouseTracking uint8

const (
	TrackingNormal MouseTracking = iota // ?1000
	TrackingButton                      // ?1002
	TrackingAll                         // ?1003
)

// MouseTrackingFor maps a mouse mode to its tracking protocol
// MouseNone has no tracking and reports false
func MouseTrackingFor(m MouseMode) (MouseTracking, bool) {
	switch m {
	case MouseClick:
		return TrackingNormal, true
	case MouseDrag:
		return TrackingButton, true
	case MouseAll:
		return TrackingAll, true
	default:
		return 0, false
	}
}

// onSequence returns the enable sequence of the tracking protocol
func (t MouseTracking) onSequence() []byte {
	switch t {
	case TrackingButton:
		return csiMouseButtonOn
	case TrackingAll:
		return csiMouseAllOn
	default:
		return csiMouseNormalOn
	}
}

// offSequence returns the disable sequence of the tracking protocol
func (t MouseTracking) offSequence() []byte {
	switch t {
	case TrackingButton:
		return csiMouseButtonOff
	case TrackingAll:
		return csiMouseAllOff
	default:
		return csiMouseNormalOff
	}
}

// ParseMouseMode resolves a mode name
func ParseMouseMode(s string) (MouseMode, bool) {
	switch s {
	case "none", "":
		return MouseNone, true
	case "click":
		return MouseClick, true
	case "drag":
		return MouseDrag, true
	case "all":
		return MouseAll, true
	}
	return MouseNone, false
}

func (m MouseMode) String() string {
	switch m {
	case MouseClick:
		return "click"
	case MouseDrag:
		return "drag"
	case MouseAll:
		return "all"
	default:
		return "none"
	}
}

func (t MouseTracking) String() string {
	switch t {
	case TrackingButton:
		return "button"
	case TrackingAll:
		return "all"
	default:
		return "normal"
	}
}

// String returns human-readable button name
func (b MouseButton) String() string {
	switch b {
	case MouseBtnLeft:
		return "Left"
	case MouseBtnMiddle:
		return "Middle"
	case MouseBtnRight:
		return "Right"
	case MouseBtnWheelUp:
		return "WheelUp"
	case MouseBtnWheelDown:
		return "WheelDown"
	case MouseBtnWheelLeft:
		return "WheelLeft"
	case MouseBtnWheelRight:
		return "WheelRight"
	default:
		return "None"
	}
}

// String returns human-readable action name
func (a MouseAction) String() string {
	switch a {
	case MouseActionPress:
		return "Press"
	case MouseActionRelease:
		return "Release"
	case MouseActionMove:
		return "Move"
	case MouseActionDrag:
		return "Drag"
	default:
		return "None"
	}
}

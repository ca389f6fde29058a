package perception

// ObjectKind is the detector class of a tracked object.
type ObjectKind string

const (
	KindCar     ObjectKind = "car"
	KindPerson  ObjectKind = "person"
	KindBicycle ObjectKind = "bicycle"
	KindLights  ObjectKind = "lights"
	KindSign    ObjectKind = "sign"
)

// SupportsCollision reports whether objects of this kind take part in
// collision warnings. Lights and signs never do.
func (k ObjectKind) SupportsCollision() bool {
	switch k {
	case KindCar, KindPerson, KindBicycle:
		return true
	default:
		return false
	}
}

func (k ObjectKind) valid() bool {
	switch k {
	case KindCar, KindPerson, KindBicycle, KindLights, KindSign:
		return true
	}
	return false
}

// RiskLevel is the perception engine's collision risk for one object.
type RiskLevel string

const (
	RiskNone     RiskLevel = "none"
	RiskWarning  RiskLevel = "warning"
	RiskCritical RiskLevel = "critical"
)

func (r RiskLevel) valid() bool {
	return r == RiskNone || r == RiskWarning || r == RiskCritical
}

// LaneDepartureState is the lane-keeping status of the vehicle.
type LaneDepartureState string

const (
	LaneNormal  LaneDepartureState = "normal"
	LaneWarning LaneDepartureState = "warning"
	LaneAlert   LaneDepartureState = "alert"
)

func (l LaneDepartureState) valid() bool {
	return l == LaneNormal || l == LaneWarning || l == LaneAlert
}

// SignType is the taxonomy class of a classified sign.
type SignType string

const (
	SignUnknown    SignType = "unknown"
	SignSpeedLimit SignType = "speedLimit"
	SignStop       SignType = "stop"
	SignYield      SignType = "yield"
	SignNoEntry    SignType = "noEntry"
	SignSchoolZone SignType = "schoolZone"
)

// SignValue identifies a classified sign. Two values are the same sign when
// both type and number match, so SignValue is usable as a map key.
type SignValue struct {
	Type   SignType `json:"type"`
	Number float64  `json:"number"`
}

// Rect is an axis-aligned bounding box in frame pixel coordinates.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Size is the pixel size of the camera frame the boxes refer to.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// TrackedObject is one tracked detection with its distance and risk.
type TrackedObject struct {
	Kind           ObjectKind `json:"kind"`
	BoundingBox    Rect       `json:"box"`
	DistanceMeters float64    `json:"distance_m"`
	Risk           RiskLevel  `json:"risk"`
}

// WorldDescription is the collision view of one frame.
type WorldDescription struct {
	Objects []TrackedObject `json:"objects"`
	// ForwardCar is the nearest in-path leading vehicle, if any.
	ForwardCar *TrackedObject `json:"forward_car,omitempty"`
	FrameSize  Size           `json:"frame_size"`
}

// SpeedLimitReading is the current posted limit together with the
// vehicle's own speed.
type SpeedLimitReading struct {
	Sign SignValue `json:"sign"`
	// LastSeen is the frame timestamp the sign was last detected at.
	LastSeen   float64 `json:"last_seen"`
	SpeedMPS   float64 `json:"speed_mps"`
	IsSpeeding bool    `json:"is_speeding"`
}

// CalibrationProgress reports camera calibration.
type CalibrationProgress struct {
	Progress     float64 `json:"progress"`
	IsCalibrated bool    `json:"is_calibrated"`
}

// RoadDescription is the lane model of the road ahead.
type RoadDescription struct {
	LaneCount        int     `json:"lane_count"`
	CurrentLane      int     `json:"current_lane"`
	RelativePosition float64 `json:"relative_position"`
}

// Frame is one perception update cycle.
type Frame struct {
	Timestamp       float64              `json:"t"`
	Classifications []SignValue          `json:"signs,omitempty"`
	World           *WorldDescription    `json:"world,omitempty"`
	LaneDeparture   *LaneDepartureState  `json:"lane,omitempty"`
	SpeedLimit      *SpeedLimitReading   `json:"speed_limit,omitempty"`
	Calibration     *CalibrationProgress `json:"calibration,omitempty"`
	Road            *RoadDescription     `json:"road,omitempty"`
}

// Performance is the model-rate profile requested from the perception
// engine for the active screen.
type Performance string

const (
	PerformanceLow    Performance = "low"
	PerformanceMedium Performance = "medium"
	PerformanceHigh   Performance = "high"
)

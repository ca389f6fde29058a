package safety

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/vision.safety/internal/perception"
)

var frame = perception.Size{Width: 1280, Height: 720}

func box(x float64) perception.Rect {
	return perception.Rect{X: x, Y: 10, Width: 40, Height: 80}
}

func obj(kind perception.ObjectKind, risk perception.RiskLevel, x float64) perception.TrackedObject {
	return perception.TrackedObject{Kind: kind, Risk: risk, BoundingBox: box(x), DistanceMeters: 10}
}

func TestClassify(t *testing.T) {
	forward := &perception.TrackedObject{Kind: perception.KindCar, BoundingBox: box(500), DistanceMeters: 21.25}

	tests := []struct {
		name  string
		world *perception.WorldDescription
		want  View
	}{
		{
			name:  "nil world",
			world: nil,
			want:  View{State: "none"},
		},
		{
			name:  "empty world",
			world: &perception.WorldDescription{FrameSize: frame},
			want:  View{State: "none"},
		},
		{
			name: "critical beats warning and forward car",
			world: &perception.WorldDescription{
				Objects: []perception.TrackedObject{
					obj(perception.KindCar, perception.RiskWarning, 1),
					obj(perception.KindPerson, perception.RiskCritical, 2),
					obj(perception.KindCar, perception.RiskCritical, 3),
				},
				ForwardCar: forward,
				FrameSize:  frame,
			},
			want: View{
				State: "collisions",
				Collisions: []Collision{
					{Kind: CriticalPerson, BoundingBox: box(2)},
					{Kind: CriticalCar, BoundingBox: box(3)},
				},
				FrameSize: &frame,
			},
		},
		{
			name: "warnings beat forward car",
			world: &perception.WorldDescription{
				Objects: []perception.TrackedObject{
					obj(perception.KindPerson, perception.RiskWarning, 1),
					obj(perception.KindCar, perception.RiskNone, 2),
					obj(perception.KindCar, perception.RiskWarning, 3),
				},
				ForwardCar: forward,
				FrameSize:  frame,
			},
			want: View{
				State: "collisions",
				Collisions: []Collision{
					{Kind: WarningPerson, BoundingBox: box(1)},
					{Kind: WarningCar, BoundingBox: box(3)},
				},
				FrameSize: &frame,
			},
		},
		{
			name: "lights and signs are ignored",
			world: &perception.WorldDescription{
				Objects: []perception.TrackedObject{
					obj(perception.KindLights, perception.RiskCritical, 1),
					obj(perception.KindSign, perception.RiskWarning, 2),
				},
				FrameSize: frame,
			},
			want: View{State: "none"},
		},
		{
			name: "forward car distance minus bonnet",
			world: &perception.WorldDescription{
				ForwardCar: forward,
				FrameSize:  frame,
			},
			want: func() View {
				b, d := box(500), 20.0
				return View{State: "distance", BoundingBox: &b, DistanceMeters: &d, FrameSize: &frame}
			}(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.world, DefaultPolicy()).View()
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Classify() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestClassify_BonnetFloor(t *testing.T) {
	world := &perception.WorldDescription{
		ForwardCar: &perception.TrackedObject{Kind: perception.KindCar, DistanceMeters: 0.5},
		FrameSize:  frame,
	}
	_, d, ok := Classify(world, DefaultPolicy()).Distance()
	require.True(t, ok)
	assert.Equal(t, 0.0, d)
}

func TestClassify_CriticalNeverDistance(t *testing.T) {
	world := &perception.WorldDescription{
		Objects: []perception.TrackedObject{
			obj(perception.KindCar, perception.RiskCritical, 1),
			obj(perception.KindPerson, perception.RiskWarning, 2),
		},
		ForwardCar: &perception.TrackedObject{Kind: perception.KindCar, DistanceMeters: 5},
		FrameSize:  frame,
	}
	s := Classify(world, DefaultPolicy())
	assert.Equal(t, VariantCollisions, s.Variant())
	assert.Equal(t, []Collision{{Kind: CriticalCar, BoundingBox: box(1)}}, s.Collisions())
	assert.True(t, s.HasCritical())
	assert.False(t, s.HasPerson())
}

func TestClassify_BicyclePolicy(t *testing.T) {
	world := &perception.WorldDescription{
		Objects:   []perception.TrackedObject{obj(perception.KindBicycle, perception.RiskCritical, 1)},
		FrameSize: frame,
	}

	t.Run("demoted to warning by default", func(t *testing.T) {
		s := Classify(world, DefaultPolicy())
		assert.Equal(t, []Collision{{Kind: WarningBicycle, BoundingBox: box(1)}}, s.Collisions())
		assert.False(t, s.HasCritical())
	})

	t.Run("critical when enabled", func(t *testing.T) {
		p := DefaultPolicy()
		p.BicycleCritical = true
		s := Classify(world, p)
		assert.Equal(t, []Collision{{Kind: CriticalBicycle, BoundingBox: box(1)}}, s.Collisions())
		assert.True(t, s.HasCritical())
	})

	t.Run("demoted bicycle does not mask a critical car", func(t *testing.T) {
		w := *world
		w.Objects = append([]perception.TrackedObject{}, world.Objects...)
		w.Objects = append(w.Objects, obj(perception.KindCar, perception.RiskCritical, 2))
		s := Classify(&w, DefaultPolicy())
		assert.Equal(t, []Collision{{Kind: CriticalCar, BoundingBox: box(2)}}, s.Collisions())
	})

	t.Run("warning bicycle", func(t *testing.T) {
		w := &perception.WorldDescription{
			Objects:   []perception.TrackedObject{obj(perception.KindBicycle, perception.RiskWarning, 4)},
			FrameSize: frame,
		}
		s := Classify(w, DefaultPolicy())
		assert.Equal(t, []Collision{{Kind: WarningBicycle, BoundingBox: box(4)}}, s.Collisions())
	})
}

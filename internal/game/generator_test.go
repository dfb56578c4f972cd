package game

import (
	"fmt"
	"testing"

	"github.com/zyedidia/generic/mapset"
)

type fakeField struct {
	width, height int
	blocked       mapset.Set[Point]
	occupied      mapset.Set[Point]
}

func newFakeField(width, height int) *fakeField {
	return &fakeField{width: width, height: height, blocked: mapset.New[Point](), occupied: mapset.New[Point]()}
}

func (f *fakeField) Dimensions() (int, int)       { return f.width, f.height }
func (f *fakeField) Blocked(p Point) bool         { return f.blocked.Has(p) }
func (f *fakeField) Occupancy() mapset.Set[Point] { return f.occupied }

func (f *fakeField) fill(set mapset.Set[Point], except ...Point) {
	skip := mapset.New[Point]()
	for _, p := range except {
		skip.Put(p)
	}
	for x := 0; x < f.width; x++ {
		for y := 0; y < f.height; y++ {
			p := Point{X: x, Y: y}
			if !skip.Has(p) {
				set.Put(p)
			}
		}
	}
}

func TestObstaclesAvoidSafeZoneAndEachOther(t *testing.T) {
	for _, size := range []FieldSize{FieldSmall, FieldMedium, FieldLarge} {
		spec := SpecFor(size)
		zone := SafeZone(spec.Width, spec.Height)
		for seed := 0; seed < 200; seed++ {
			gen := NewGenerator(NewDeterministicRNG(fmt.Sprintf("seed-%d", seed), "obstacles"))
			obstacles := gen.Obstacles(size, nil)
			if len(obstacles) == 0 {
				t.Fatalf("%s seed %d: expected obstacles", size, seed)
			}
			for i, obs := range obstacles {
				if obs.Overlaps(zone) {
					t.Fatalf("%s seed %d: obstacle %+v covers safe zone %+v", size, seed, obs, zone)
				}
				if obs.X < 0 || obs.Y < 0 || obs.X+obs.Width > spec.Width || obs.Y+obs.Height > spec.Height {
					t.Fatalf("%s seed %d: obstacle %+v out of bounds", size, seed, obs)
				}
				for j := i + 1; j < len(obstacles); j++ {
					if obs.Overlaps(obstacles[j]) {
						t.Fatalf("%s seed %d: obstacles %+v and %+v overlap", size, seed, obs, obstacles[j])
					}
				}
			}
		}
	}
}

func TestObstaclesHonourReject(t *testing.T) {
	forbidden := Point{X: 2, Y: 2}
	for seed := 0; seed < 50; seed++ {
		gen := NewGenerator(NewDeterministicRNG(fmt.Sprint(seed), "reject"))
		obstacles := gen.Obstacles(FieldSmall, func(o Obstacle) bool { return o.Contains(forbidden) })
		if InObstacle(forbidden, obstacles) {
			t.Fatalf("seed %d: rejected cell covered by %+v", seed, obstacles)
		}
	}
}

func TestFoodFallsBackToExhaustiveScan(t *testing.T) {
	field := newFakeField(4, 4)
	free := Point{X: 3, Y: 1}
	field.fill(field.occupied, free)

	food := NewGenerator(NewDeterministicRNG("food", "scan")).Food(field)
	if food.Position() != free {
		t.Fatalf("expected food at the only free cell %+v, got %+v", free, food.Position())
	}
	if food.Points == 0 || food.Type == "" || food.Color == "" {
		t.Fatalf("expected a food variant, got %+v", food)
	}
}

func TestFoodIgnoresObstaclesWhenNothingElseIsFree(t *testing.T) {
	field := newFakeField(4, 4)
	field.fill(field.blocked)
	field.fill(field.occupied, Point{X: 2, Y: 3}, Point{X: 1, Y: 2})

	food := NewGenerator(NewDeterministicRNG("food", "blocked")).Food(field)
	if got, want := food.Position(), (Point{X: 1, Y: 2}); got != want {
		t.Fatalf("expected column-major first unoccupied cell %+v, got %+v", want, got)
	}
}

func TestFoodLastResortStaysInBounds(t *testing.T) {
	field := newFakeField(3, 3)
	field.fill(field.occupied)

	food := NewGenerator(NewDeterministicRNG("food", "full")).Food(field)
	if !InBounds(food.Position(), 3, 3) {
		t.Fatalf("expected in-bounds fallback, got %+v", food.Position())
	}
}

func TestPowerUpStaysInsideMargin(t *testing.T) {
	field := newFakeField(10, 10)
	for seed := 0; seed < 100; seed++ {
		pu, ok := NewGenerator(NewDeterministicRNG(fmt.Sprint(seed), "powerup")).PowerUp(field, EffectDoublePoints)
		if !ok {
			t.Fatalf("seed %d: expected a power-up on an empty field", seed)
		}
		if pu.X < 1 || pu.X > 8 || pu.Y < 1 || pu.Y > 8 {
			t.Fatalf("seed %d: power-up %+v touches the edge", seed, pu)
		}
		if pu.Type != EffectDoublePoints || pu.Duration != 10000 {
			t.Fatalf("unexpected power-up definition %+v", pu)
		}
	}
}

func TestPowerUpExhaustionReturnsNothing(t *testing.T) {
	field := newFakeField(6, 6)
	field.fill(field.occupied)
	if pu, ok := NewGenerator(nil).PowerUp(field, EffectDoublePoints); ok {
		t.Fatalf("expected no power-up, got %+v", pu)
	}
	if _, ok := NewGenerator(nil).PowerUp(newFakeField(6, 6), EffectKind("unknown")); ok {
		t.Fatalf("expected unknown kind to spawn nothing")
	}
}

func TestSnakeStartShape(t *testing.T) {
	field := newFakeField(20, 20)
	body := NewGenerator(NewDeterministicRNG("spawn", "shape")).SnakeStart(field)
	if len(body) != 3 {
		t.Fatalf("expected 3 segments, got %d", len(body))
	}
	head := body[0]
	if head.X < 3 || head.X >= 17 || head.Y < 3 || head.Y >= 17 {
		t.Fatalf("head %+v outside spawn margin", head)
	}
	for i, seg := range body {
		if seg != (Point{X: head.X - i, Y: head.Y}) {
			t.Fatalf("segment %d = %+v, expected horizontal body trailing left", i, seg)
		}
	}
}

func TestSnakeStartFallsBackToCenter(t *testing.T) {
	field := newFakeField(20, 20)
	field.fill(field.blocked)
	body := NewGenerator(nil).SnakeStart(field)
	want := []Point{{X: 10, Y: 10}, {X: 9, Y: 10}, {X: 8, Y: 10}}
	for i := range want {
		if body[i] != want[i] {
			t.Fatalf("expected centre body %+v, got %+v", want, body)
		}
	}
}

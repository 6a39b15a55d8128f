package parse

// Resource is a countable material kind.
type Resource string

const (
	Wood  Resource = "wood"
	Brick Resource = "brick"
	Sheep Resource = "sheep"
	Wheat Resource = "wheat"
	Ore   Resource = "ore"
)

// Kinds lists every resource kind in display order.
func Kinds() []Resource {
	return []Resource{Wood, Brick, Sheep, Wheat, Ore}
}

// Resources maps a resource kind to a non-negative count.
type Resources map[Resource]int

// Total returns the sum of all counts.
func (r Resources) Total() int {
	total := 0
	for _, n := range r {
		total += n
	}
	return total
}

// Clone returns an independent copy.
func (r Resources) Clone() Resources {
	out := make(Resources, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Item is a constructible piece.
type Item string

const (
	Road       Item = "road"
	Settlement Item = "settlement"
	City       Item = "city"
)

// Event is one classified game occurrence. Values are constructed by a
// parser, consumed once by the tracker, then discarded. New variants may be
// added without touching existing consumers: unknown kinds are no-ops.
type Event interface {
	Kind() string
}

// DiceRoll is a dice roll summed over the rolled die faces.
type DiceRoll struct {
	Sum int
}

func (DiceRoll) Kind() string { return "dice_roll" }

// StartingResources is a player's initial resource grant.
type StartingResources struct {
	Player    string
	Resources Resources
}

func (StartingResources) Kind() string { return "starting_resources" }

// Got is a mid-game resource gain.
type Got struct {
	Player    string
	Resources Resources
}

func (Got) Kind() string { return "got" }

// Build is a construction action. Items may be empty when none of the
// line's icons were recognised; the event is still emitted so downstream
// can log the unrecognised build.
type Build struct {
	Player string
	Items  []Item
}

func (Build) Kind() string { return "build" }

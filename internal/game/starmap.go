package game

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand"
	"sort"

	"lukechampine.com/blake3"
)

// ErrGenerationFailed is returned when no valid starmap could be produced
// within the attempt budget. No partial map is installed in that case.
var ErrGenerationFailed = errors.New("starmap generation failed")

// MapNode is one record of the map authoring format.
type MapNode struct {
	Position           Vec3  `json:"position" msgpack:"position"`
	ConnectedIndices   []int `json:"connectedIndices" msgpack:"connectedIndices"`
	StartingOwner      int   `json:"startingOwner" msgpack:"startingOwner"`
	StartingDroneCount int   `json:"startingDroneCount" msgpack:"startingDroneCount"`
}

// Starmap is a connected graph of base positions. Node order is the base-id
// assignment order (sorted by z for generated maps).
type Starmap struct {
	Nodes []MapNode `json:"nodes"`
}

// MapSize selects one of the randomized starmap presets.
type MapSize string

const (
	MapSizeSmall   MapSize = "small"
	MapSizeMedium  MapSize = "medium"
	MapSizeLarge   MapSize = "large"
	MapSizeMassive MapSize = "massive"
)

// RandomizedStarmapSettings are the generation constraints for one map size.
type RandomizedStarmapSettings struct {
	NumberOfLayers        int
	StarfieldSize         Vec3
	MinNodeDistance       float64
	MaxNodeDistance       float64
	MaxConnectionDistance float64
}

// RandomizedStarmapPresets maps each map size to its generation constraints.
var RandomizedStarmapPresets = map[MapSize]RandomizedStarmapSettings{
	MapSizeSmall:   {NumberOfLayers: 3, StarfieldSize: Vec3{X: 4, Y: 2, Z: 6}, MinNodeDistance: 1.5, MaxNodeDistance: 4, MaxConnectionDistance: 3.5},
	MapSizeMedium:  {NumberOfLayers: 5, StarfieldSize: Vec3{X: 6, Y: 3, Z: 10}, MinNodeDistance: 1.5, MaxNodeDistance: 4.5, MaxConnectionDistance: 4},
	MapSizeLarge:   {NumberOfLayers: 7, StarfieldSize: Vec3{X: 8, Y: 4, Z: 14}, MinNodeDistance: 1.5, MaxNodeDistance: 5, MaxConnectionDistance: 4.5},
	MapSizeMassive: {NumberOfLayers: 9, StarfieldSize: Vec3{X: 10, Y: 5, Z: 18}, MinNodeDistance: 1.5, MaxNodeDistance: 5, MaxConnectionDistance: 5},
}

// PredictBaseCount returns how many bases a map with the given layer count
// will contain: the two home bases plus each mirrored layer pair, with the
// midpoint layer present once when the layer count is odd.
func PredictBaseCount(numLayers int) int {
	count := 2
	midPoint := numLayers / 2
	for i := 1; i <= midPoint; i++ {
		basesInLayer := 2 * (i + 1)
		if i == midPoint && numLayers%2 == 1 {
			basesInLayer = i + 1
		}
		count += basesInLayer
	}
	return count
}

// GenerateStarmap produces a randomized starmap honoring the settings'
// spacing and symmetry constraints. It retries whole attempts up to
// MaxGenerateAttempts before reporting ErrGenerationFailed.
func GenerateStarmap(settings RandomizedStarmapSettings, rng *rand.Rand) (*Starmap, error) {
	if settings.NumberOfLayers%2 == 0 {
		settings.NumberOfLayers++ // layer count must be odd for the midpoint layer
	}

	for attempt := 0; attempt < MaxGenerateAttempts; attempt++ {
		positions, ok := GenerateRandomPositions(settings, rng)
		if !ok {
			continue
		}
		connections := GenerateConnections(positions, settings.MaxConnectionDistance)
		ensureHomeConnections(positions, connections)
		return assembleStarmap(positions, connections), nil
	}

	return nil, fmt.Errorf("%w: no valid layout after %d attempts", ErrGenerationFailed, MaxGenerateAttempts)
}

// GenerateRandomPositions places the two home bases at the z extremes and
// fills the intermediate layers by rejection sampling, mirroring every
// accepted position onto the opposite side of the z=0 plane. The midpoint
// layer is forced exactly onto z=0. The returned list is sorted by z; ok is
// false when the sample budget for any node ran out.
func GenerateRandomPositions(settings RandomizedStarmapSettings, rng *rand.Rand) (positions []Vec3, ok bool) {
	layerDistance := (2 * settings.StarfieldSize.Z) / float64(settings.NumberOfLayers-1)

	positions = []Vec3{{X: 0, Y: 0, Z: -settings.StarfieldSize.Z}}

	for i := 1; i <= settings.NumberOfLayers/2; i++ {
		basesInLayer := i + 1

		for j := 0; j < basesInLayer; j++ {
			var position Vec3
			samples := 0
			for {
				position = Vec3{
					X: rng.Float64()*2*settings.StarfieldSize.X - settings.StarfieldSize.X,
					Y: rng.Float64()*2*settings.StarfieldSize.Y - settings.StarfieldSize.Y,
					Z: -settings.StarfieldSize.Z + float64(i)*layerDistance +
						(rng.Float64()*2-1)*layerDistance/3,
				}
				samples++
				if samples > MaxPlacementSamples {
					// The constraints cannot be satisfied from here; abandon
					// the whole attempt rather than install a partial layout.
					return nil, false
				}
				if isWithinRangeOfTwoBases(positions, position, settings.MinNodeDistance, settings.MaxNodeDistance) {
					break
				}
			}

			if i == settings.NumberOfLayers/2 {
				// Midpoint layer: force onto the mirror plane for symmetry.
				position.Z = 0
			}

			positions = append(positions, position)

			if i != settings.NumberOfLayers/2 {
				positions = append(positions, Vec3{X: position.X, Y: position.Y, Z: -position.Z})
			}
		}
	}

	positions = append(positions, Vec3{X: 0, Y: 0, Z: settings.StarfieldSize.Z})

	sort.SliceStable(positions, func(a, b int) bool {
		return positions[a].Z < positions[b].Z
	})

	return positions, true
}

// isWithinRangeOfTwoBases accepts a candidate position only if it keeps
// MinNodeDistance from every placed position and has at least two placed
// positions within MaxNodeDistance. With a single placed position anything
// goes, and with exactly two one in-range neighbor suffices.
func isWithinRangeOfTwoBases(placed []Vec3, position Vec3, minNodeDistance, maxNodeDistance float64) bool {
	if len(placed) <= 1 {
		return true
	}

	withinRange := 0
	for _, b := range placed {
		if position.Distance(b) > maxNodeDistance {
			continue
		}
		tooClose := false
		for _, c := range placed {
			if position.Distance(c) < minNodeDistance {
				tooClose = true
				break
			}
		}
		if !tooClose {
			withinRange++
		}
	}

	if len(placed) == 2 {
		return withinRange >= 1
	}
	return withinRange >= 2
}

// GenerateConnections links every position to all others within
// maxConnectionDistance. Positions left with fewer than two links get their
// nearest (and second-nearest) neighbors instead, and a post-pass makes
// every connection two-way.
func GenerateConnections(positions []Vec3, maxConnectionDistance float64) [][]int {
	connections := make([][]int, len(positions))

	for i := range positions {
		var current []int

		closestDistance := math.MaxFloat64
		secondClosestDistance := math.MaxFloat64
		closestIndex := -1
		secondClosestIndex := -1

		for j := range positions {
			if i == j {
				continue
			}

			distance := positions[i].Distance(positions[j])

			if distance < closestDistance {
				secondClosestDistance = closestDistance
				secondClosestIndex = closestIndex
				closestDistance = distance
				closestIndex = j
			} else if distance < secondClosestDistance {
				secondClosestDistance = distance
				secondClosestIndex = j
			}

			if distance <= maxConnectionDistance {
				current = append(current, j)
			}
		}

		if len(current) == 0 {
			if closestIndex != -1 {
				current = append(current, closestIndex)
			}
			if secondClosestIndex != -1 {
				current = append(current, secondClosestIndex)
			}
		} else if len(current) == 1 && secondClosestIndex != -1 {
			current = append(current, secondClosestIndex)
		}

		connections[i] = current
	}

	// Ensure that all connections are two-way.
	for i, conn := range connections {
		for _, j := range conn {
			if j >= len(connections) {
				continue
			}
			if !containsInt(connections[j], i) {
				connections[j] = append(connections[j], i)
			}
		}
	}

	return connections
}

// ensureHomeConnections guarantees both home bases at least two links to
// their nearest neighbors and recenters each home base's x onto the average
// x of those neighbors for visual symmetry. Positions are z-sorted, so the
// neighbors are the adjacent entries.
func ensureHomeConnections(positions []Vec3, connections [][]int) {
	if len(positions) < 4 {
		return
	}

	last := len(positions) - 1
	nearestToFirst := []int{1, 2}
	nearestToLast := []int{last - 1, last - 2}

	avgX := 0.0
	for _, idx := range nearestToFirst {
		if !containsInt(connections[0], idx) {
			connections[0] = append(connections[0], idx)
		}
		if !containsInt(connections[idx], 0) {
			connections[idx] = append(connections[idx], 0)
		}
		avgX += positions[idx].X
	}
	positions[0].X = avgX * 0.5

	avgX = 0.0
	for _, idx := range nearestToLast {
		if !containsInt(connections[last], idx) {
			connections[last] = append(connections[last], idx)
		}
		if !containsInt(connections[idx], last) {
			connections[idx] = append(connections[idx], last)
		}
		avgX += positions[idx].X
	}
	positions[last].X = avgX * 0.5
}

// assembleStarmap turns the generated layout into authoring-format nodes.
// The first base by z belongs to team 0, the last to team 1, everything in
// between starts neutral.
func assembleStarmap(positions []Vec3, connections [][]int) *Starmap {
	starmap := &Starmap{Nodes: make([]MapNode, len(positions))}
	for i := range positions {
		owner := NeutralTeam
		droneCount := 0
		if i == 0 {
			owner = 0
			droneCount = StartingDroneCount
		} else if i == len(positions)-1 {
			owner = 1
			droneCount = StartingDroneCount
		}

		connected := make([]int, len(connections[i]))
		copy(connected, connections[i])
		sort.Ints(connected)

		starmap.Nodes[i] = MapNode{
			Position:           positions[i],
			ConnectedIndices:   connected,
			StartingOwner:      owner,
			StartingDroneCount: droneCount,
		}
	}
	return starmap
}

// Validate checks a predefined or loaded starmap for structural problems:
// connection indices out of range, self-links, or more links than a base
// record can hold.
func (m *Starmap) Validate() error {
	if len(m.Nodes) == 0 {
		return errors.New("starmap has no nodes")
	}
	if len(m.Nodes) > MaxBases {
		return fmt.Errorf("starmap has %d nodes, capacity is %d", len(m.Nodes), MaxBases)
	}
	for i, node := range m.Nodes {
		if len(node.ConnectedIndices) > MaxConnections {
			return fmt.Errorf("node %d has %d connections, capacity is %d", i, len(node.ConnectedIndices), MaxConnections)
		}
		for _, idx := range node.ConnectedIndices {
			if idx < 0 || idx >= len(m.Nodes) {
				return fmt.Errorf("node %d connects to out-of-range node %d", i, idx)
			}
			if idx == i {
				return fmt.Errorf("node %d connects to itself", i)
			}
		}
	}
	return nil
}

// Save writes the starmap in the authoring format.
func (m *Starmap) Save(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(m)
}

// LoadStarmap reads a starmap from the authoring format and validates it.
func LoadStarmap(r io.Reader) (*Starmap, error) {
	var starmap Starmap
	if err := json.NewDecoder(r).Decode(&starmap); err != nil {
		return nil, fmt.Errorf("decode starmap: %w", err)
	}
	if err := starmap.Validate(); err != nil {
		return nil, fmt.Errorf("invalid starmap: %w", err)
	}
	return &starmap, nil
}

// Fingerprint returns a blake3 hash of the canonical map encoding. Clients
// compare fingerprints to detect map changes without diffing node lists.
func (m *Starmap) Fingerprint() string {
	data, err := json.Marshal(m)
	if err != nil {
		// Starmap marshaling cannot fail for the types involved.
		return ""
	}
	sum := blake3.Sum256(data)
	return fmt.Sprintf("%x", sum[:])
}

func containsInt(list []int, v int) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

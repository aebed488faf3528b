package pump

import "strings"

// Liquid describes the substance a pump moves and the tube it builds for it.
type Liquid struct {
	Name    string
	Tube    string // tube block, also the item kept in the feed slot
	Flowing string
	Settled string
	Bucket  string // full bucket item that switches the pump to fill mode

	// FillPermission gates fill mode. When FillDimension is set the gate only
	// applies in that dimension.
	FillPermission  string
	FillDimension   string
	FillDenied      string
	DrainPermission string
	DrainDenied     string
}

var Water = Liquid{
	Name:           "water",
	Tube:           "WOOD",
	Flowing:        "WATER",
	Settled:        "STATIONARY_WATER",
	Bucket:         "WATER_BUCKET",
	FillPermission: PermNetherWater,
	FillDimension:  DimensionNether,
	FillDenied:     "You do not have permission to pour water with a pump in the nether.",
}

var Lava = Liquid{
	Name:            "lava",
	Tube:            "IRON_BLOCK",
	Flowing:         "LAVA",
	Settled:         "STATIONARY_LAVA",
	Bucket:          "LAVA_BUCKET",
	FillPermission:  PermLavaFill,
	FillDenied:      "You do not have permission to pour lava with a pump.",
	DrainPermission: PermLavaDrain,
	DrainDenied:     "You do not have permission to drain lava with a pump.",
}

func LiquidByName(name string) (Liquid, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "water":
		return Water, true
	case "lava":
		return Lava, true
	}
	return Liquid{}, false
}

// IsLiquid reports flowing or settled cells of this substance.
func (l Liquid) IsLiquid(block string) bool {
	return block == l.Flowing || block == l.Settled
}

func (l Liquid) fillGated(dimension string) bool {
	if l.FillPermission == "" {
		return false
	}
	return l.FillDimension == "" || l.FillDimension == dimension
}

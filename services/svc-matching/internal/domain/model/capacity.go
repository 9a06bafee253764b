package model

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// MaxCapacity is the open upper bound of a capacity requirement.
const MaxCapacity = 1_000_000_000

type (
	Bounds struct {
		Min float64
		Max float64
	}

	// Envelope is the physical requirement a transport has to meet.
	Envelope struct {
		Weight     Bounds
		Volume     Bounds
		Length     Bounds
		Width      Bounds
		Height     Bounds
		MinPallets int
	}

	Capacity struct {
		Weight      float64
		Volume      float64
		Length      float64
		Width       float64
		Height      float64
		Pallets     int
		WeightExtra float64
		VolumeExtra float64
	}

	MatchResult struct {
		Matches bool
		Reason  string
	}
)

// DefaultBounds is the sentinel range used for open-ended predicate ranges.
var DefaultBounds = Bounds{Min: -math.MaxFloat64, Max: math.MaxFloat64}

func CapacityBounds() Bounds {
	return Bounds{Min: 0, Max: MaxCapacity}
}

func (b Bounds) Contains(v float64) bool {
	return v >= b.Min && v <= b.Max
}

func (b Bounds) String() string {
	return fmt.Sprintf("[%s, %s]", formatNumber(b.Min), formatNumber(b.Max))
}

// Resolve fills the open sides of r from b.
func (b Bounds) Resolve(r Range) Bounds {
	resolved := b

	if r.Min != nil {
		resolved.Min = *r.Min
	}

	if r.Max != nil {
		resolved.Max = *r.Max
	}

	return resolved
}

func NewEnvelope() Envelope {
	return Envelope{
		Weight: CapacityBounds(),
		Volume: CapacityBounds(),
		Length: CapacityBounds(),
		Width:  CapacityBounds(),
		Height: CapacityBounds(),
	}
}

// Effective returns the capacity a transport offers with an optional trailer.
// Extra weight and volume replace the base values, trailer weight, volume and
// pallets add up, trailer dimensions only narrow.
func (c Capacity) Effective(trailer *Capacity) Capacity {
	effective := Capacity{
		Weight:  c.Weight,
		Volume:  c.Volume,
		Length:  c.Length,
		Width:   c.Width,
		Height:  c.Height,
		Pallets: c.Pallets,
	}

	if c.WeightExtra > 0 {
		effective.Weight = c.WeightExtra
	}

	if c.VolumeExtra > 0 {
		effective.Volume = c.VolumeExtra
	}

	if trailer == nil {
		return effective
	}

	effective.Weight += trailer.Weight
	effective.Volume += trailer.Volume
	effective.Pallets += trailer.Pallets
	effective.Length = narrow(effective.Length, trailer.Length)
	effective.Width = narrow(effective.Width, trailer.Width)
	effective.Height = narrow(effective.Height, trailer.Height)

	return effective
}

// CheckRequirements matches a transport, optionally paired with a trailer,
// against an envelope. Reason lists every failing check.
func CheckRequirements(envelope Envelope, transport Capacity, trailer *Capacity) MatchResult {
	effective := transport.Effective(trailer)

	checks := []struct {
		name   string
		value  float64
		bounds Bounds
	}{
		{name: "weight", value: effective.Weight, bounds: envelope.Weight},
		{name: "volume", value: effective.Volume, bounds: envelope.Volume},
		{name: "length", value: effective.Length, bounds: envelope.Length},
		{name: "width", value: effective.Width, bounds: envelope.Width},
		{name: "height", value: effective.Height, bounds: envelope.Height},
	}

	var reasons []string

	for _, check := range checks {
		if !check.bounds.Contains(check.value) {
			reasons = append(reasons, fmt.Sprintf("%s %s is outside %s", check.name, formatNumber(check.value), check.bounds))
		}
	}

	if effective.Pallets < envelope.MinPallets {
		reasons = append(reasons, fmt.Sprintf("pallets %d is below %d", effective.Pallets, envelope.MinPallets))
	}

	return MatchResult{
		Matches: len(reasons) == 0,
		Reason:  strings.Join(reasons, "; "),
	}
}

func narrow(own, limit float64) float64 {
	if limit > 0 {
		return math.Min(own, limit)
	}

	return own
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

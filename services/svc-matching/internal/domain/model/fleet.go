package model

import "slices"

// TransportFilter is the part of a fleet filter evaluated in memory.
type TransportFilter struct {
	Envelope       Envelope
	LoadingTypes   []string
	RiskClasses    []string
	Fixtures       []string
	TransportTypes []string
	RiskClass      string
}

// MembershipKeys are the filter keys FilterFleet evaluates as set overlaps.
var MembershipKeys = []string{"loadingTypes", "riskClasses", "fixtures", "transportType", "riskClass"}

func TransportFilterFromSpec(spec FilterSpec) TransportFilter {
	filter := TransportFilter{
		Envelope:       EnvelopeFromFilter(spec),
		LoadingTypes:   spec.Strings("loadingTypes"),
		RiskClasses:    spec.Strings("riskClasses"),
		Fixtures:       spec.Strings("fixtures"),
		TransportTypes: spec.Strings("transportType"),
	}

	if riskClass := spec.Strings("riskClass"); len(riskClass) > 0 {
		filter.RiskClass = riskClass[0]
	}

	return filter
}

func (f TransportFilter) admits(t Transport) bool {
	if len(f.LoadingTypes) > 0 && !overlaps(f.LoadingTypes, t.LoadingTypes) {
		return false
	}

	if len(f.RiskClasses) > 0 && !overlaps(f.RiskClasses, t.RiskClasses) {
		return false
	}

	if len(f.Fixtures) > 0 && !overlaps(f.Fixtures, t.Fixtures) {
		return false
	}

	if len(f.TransportTypes) > 0 && !slices.Contains(f.TransportTypes, t.TransportType) {
		return false
	}

	if f.RiskClass != "" && !slices.Contains(t.RiskClasses, f.RiskClass) {
		return false
	}

	return true
}

// FilterFleet returns the main transports able to carry the filter's
// envelope, in input order. A main transport is first tried with the first
// active trailer of its driver and then alone. Trailers are never returned
// on their own.
func FilterFleet(transports []Transport, filter TransportFilter, onlyActive bool) []Transport {
	mains := make([]Transport, 0, len(transports))
	trailers := make([]Transport, 0)

	for _, t := range transports {
		if onlyActive && !t.IsActive() {
			continue
		}

		if !filter.admits(t) {
			continue
		}

		if t.IsTrailer {
			trailers = append(trailers, t)

			continue
		}

		mains = append(mains, t)
	}

	result := make([]Transport, 0, len(mains))

	for _, main := range mains {
		if matched, ok := pair(main, trailers, filter.Envelope); ok {
			result = append(result, matched)
		}
	}

	return result
}

// PairTrailer returns the first active trailer of the transport's driver.
func PairTrailer(main Transport, trailers []Transport) (Transport, bool) {
	if !main.HasDriver() {
		return Transport{}, false
	}

	for _, trailer := range trailers {
		if trailer.IsTrailer && trailer.IsActive() && trailer.DriverID == main.DriverID {
			return trailer, true
		}
	}

	return Transport{}, false
}

// MatchTransport checks a transport against an envelope with and then
// without its trailer, returning the transport with its effective capacity.
func MatchTransport(main Transport, trailer *Transport, envelope Envelope) (Transport, bool) {
	if trailer != nil {
		if CheckRequirements(envelope, main.Capacity, &trailer.Capacity).Matches {
			attached := *trailer
			main.Capacity = main.Capacity.Effective(&attached.Capacity)
			main.Trailer = &attached

			return main, true
		}
	}

	if CheckRequirements(envelope, main.Capacity, nil).Matches {
		main.Capacity = main.Capacity.Effective(nil)
		main.Trailer = nil

		return main, true
	}

	return Transport{}, false
}

func pair(main Transport, trailers []Transport, envelope Envelope) (Transport, bool) {
	if trailer, ok := PairTrailer(main, trailers); ok {
		return MatchTransport(main, &trailer, envelope)
	}

	return MatchTransport(main, nil, envelope)
}

func overlaps(want, have []string) bool {
	for _, w := range want {
		if slices.Contains(have, w) {
			return true
		}
	}

	return false
}

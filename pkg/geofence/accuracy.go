package geofence

// AccuracyTier is a qualitative rating of a device-reported accuracy radius.
type AccuracyTier int

const (
	TierExcellent AccuracyTier = iota
	TierVeryGood
	TierGood
	TierAcceptable
	TierLow
	TierVeryLow
	TierUnacceptable
)

func (t AccuracyTier) String() string {
	switch t {
	case TierExcellent:
		return "excellent"
	case TierVeryGood:
		return "very good"
	case TierGood:
		return "good"
	case TierAcceptable:
		return "acceptable"
	case TierLow:
		return "low"
	case TierVeryLow:
		return "very low"
	default:
		return "unacceptable"
	}
}

// Classification is the outcome of rating an accuracy radius.
type Classification struct {
	Tier       AccuracyTier
	Acceptable bool
	Confidence float64
}

// accuracyBand maps an upper accuracy bound (meters, inclusive) to its rating.
type accuracyBand struct {
	upTo           float64
	classification Classification
}

// The breakpoints are design constants tuned against consumer GPS hardware,
// not configuration. Evaluated in ascending order, first band wins.
var accuracyBands = []accuracyBand{
	{10, Classification{TierExcellent, true, 1.0}},
	{30, Classification{TierVeryGood, true, 0.9}},
	{50, Classification{TierGood, true, 0.8}},
	{100, Classification{TierAcceptable, true, 0.7}},
	{200, Classification{TierLow, true, 0.6}},
	{500, Classification{TierVeryLow, true, 0.4}},
}

// Classify rates a device-reported accuracy radius in meters.
func Classify(accuracyRadius float64) Classification {
	for _, band := range accuracyBands {
		if accuracyRadius <= band.upTo {
			return band.classification
		}
	}
	return Classification{TierUnacceptable, false, 0.2}
}

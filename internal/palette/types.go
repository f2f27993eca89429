package palette

// #region color-bias

// ColorBias weights how a color reads along three affective axes, each in [0, 1].
type ColorBias struct {
	ThreatBias    float64 `json:"threat_bias"`
	SootheBias    float64 `json:"soothe_bias"`
	GroundingBias float64 `json:"grounding_bias"`
}

// NeutralBias is returned for tokens no culture table recognizes.
var NeutralBias = ColorBias{ThreatBias: 0.3, SootheBias: 0.3, GroundingBias: 0.3}

func (b ColorBias) safe() bool {
	return b.ThreatBias <= 0.2 && b.SootheBias+b.GroundingBias >= 1.0
}

func (b ColorBias) calmScore() float64 {
	return b.SootheBias + b.GroundingBias - 2*b.ThreatBias
}

func (b ColorBias) threatDominant() bool {
	return b.ThreatBias > b.SootheBias
}

// #endregion color-bias

// #region tables

// DefaultCulture is used when a culture is unknown.
const DefaultCulture = "default"

type entry struct {
	token string
	bias  ColorBias
}

var (
	red    = ColorBias{0.8, 0.1, 0.2}
	orange = ColorBias{0.5, 0.3, 0.3}
	yellow = ColorBias{0.35, 0.45, 0.3}
	green  = ColorBias{0.1, 0.7, 0.6}
	teal   = ColorBias{0.1, 0.75, 0.5}
	blue   = ColorBias{0.1, 0.8, 0.5}
	purple = ColorBias{0.3, 0.5, 0.3}
	brown  = ColorBias{0.15, 0.4, 0.8}
	gray   = ColorBias{0.2, 0.4, 0.5}
	black  = ColorBias{0.6, 0.1, 0.4}
	white  = ColorBias{0.1, 0.6, 0.3}
)

func defaultTable() map[string]entry {
	return map[string]entry{
		"red":     {"red", red},
		"crimson": {"crimson", ColorBias{0.85, 0.05, 0.2}},
		"orange":  {"orange", orange},
		"yellow":  {"yellow", yellow},
		"green":   {"green", green},
		"teal":    {"teal", teal},
		"blue":    {"blue", blue},
		"purple":  {"purple", purple},
		"brown":   {"brown", brown},
		"gray":    {"gray", gray},
		"grey":    {"gray", gray},
		"black":   {"black", black},
		"white":   {"white", white},
	}
}

func jaTable() map[string]entry {
	aka := entry{"aka/red", red}
	ao := entry{"ao/blue", blue}
	midori := entry{"midori/green", ColorBias{0.1, 0.75, 0.6}}
	kiiro := entry{"kiiro/yellow", yellow}
	shiro := entry{"shiro/white", white}
	kuro := entry{"kuro/black", black}
	murasaki := entry{"murasaki/purple", purple}
	chairo := entry{"chairo/brown", brown}
	return map[string]entry{
		"aka": aka, "akai": aka, "赤": aka,
		"ao": ao, "aoi": {"aoi/blue", blue}, "青": ao,
		"midori": midori, "緑": midori,
		"kiiro": kiiro, "黄": kiiro,
		"shiro": shiro, "白": shiro,
		"kuro": kuro, "黒": kuro,
		"murasaki": murasaki, "紫": murasaki,
		"chairo": chairo, "茶": chairo,
	}
}

// #endregion tables

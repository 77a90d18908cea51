package domain

// ToxicityThresholds holds the exposure limits reported by the chemical
// directory, in mg/m³. Zero means the directory had no value.
type ToxicityThresholds struct {
	IDLH float64 `json:"idlh,omitempty"` // immediately dangerous to life or health
	TWA  float64 `json:"twa,omitempty"`  // 8-hour time-weighted average
	STEL float64 `json:"stel,omitempty"` // short-term exposure limit
	LC50 float64 `json:"lc50,omitempty"` // median lethal concentration
}

// ChemicalProperties is the immutable property snapshot supplied by the
// chemical directory. The dispersion engine only reads it.
type ChemicalProperties struct {
	ID        string `json:"id"`
	Name      string `json:"name,omitempty"`
	CASNumber string `json:"cas_number,omitempty"`

	MolecularWeight float64 `json:"molecular_weight"` // g/mol
	LiquidDensity   float64 `json:"liquid_density"`   // kg/m³
	VaporPressure   float64 `json:"vapor_pressure"`   // Pa at 298.15 K
	BoilingPoint    float64 `json:"boiling_point"`    // K at standard pressure

	// The energy balance consumes the specific latent heat (J/kg); the
	// Clausius-Clapeyron relations consume the molar value (J/mol).
	HeatOfVaporization      float64 `json:"heat_of_vaporization"`       // J/kg
	MolarHeatOfVaporization float64 `json:"molar_heat_of_vaporization"` // J/mol

	Toxicity ToxicityThresholds `json:"toxicity,omitzero"`
}

// Conservative per-field defaults substituted when the directory returns
// partial data. Molecular weight and density default to air-like values so
// an unknown chemical disperses neutrally instead of being dropped.
const (
	DefaultMolecularWeight         = 28.97   // g/mol, dry air
	DefaultLiquidDensity           = 1000.0  // kg/m³, water
	DefaultVaporPressure           = 1000.0  // Pa
	DefaultBoilingPoint            = 373.15  // K, water
	DefaultHeatOfVaporization      = 2.26e6  // J/kg, water
	DefaultMolarHeatOfVaporization = 4.0e4   // J/mol
)

// WithDefaults returns a copy with every zero field required by the solver
// replaced by its conservative default, plus the names of the substituted
// fields for logging and quality flagging.
func (c ChemicalProperties) WithDefaults() (ChemicalProperties, []string) {
	var filled []string
	if c.MolecularWeight <= 0 {
		c.MolecularWeight = DefaultMolecularWeight
		filled = append(filled, "molecular_weight")
	}
	if c.LiquidDensity <= 0 {
		c.LiquidDensity = DefaultLiquidDensity
		filled = append(filled, "liquid_density")
	}
	if c.VaporPressure <= 0 {
		c.VaporPressure = DefaultVaporPressure
		filled = append(filled, "vapor_pressure")
	}
	if c.BoilingPoint <= 0 {
		c.BoilingPoint = DefaultBoilingPoint
		filled = append(filled, "boiling_point")
	}
	if c.HeatOfVaporization <= 0 {
		c.HeatOfVaporization = DefaultHeatOfVaporization
		filled = append(filled, "heat_of_vaporization")
	}
	if c.MolarHeatOfVaporization <= 0 {
		c.MolarHeatOfVaporization = DefaultMolarHeatOfVaporization
		filled = append(filled, "molar_heat_of_vaporization")
	}
	return c, filled
}

package domain

// ReceptorType categorizes a point of interest. Health-impact thresholds are
// stricter for types sheltering sensitive populations.
type ReceptorType string

const (
	ReceptorSchool      ReceptorType = "school"
	ReceptorHospital    ReceptorType = "hospital"
	ReceptorResidential ReceptorType = "residential"
	ReceptorIndustrial  ReceptorType = "industrial"
)

// SensitivityLevel scales a receptor's impact thresholds.
type SensitivityLevel string

const (
	SensitivityLow      SensitivityLevel = "low"
	SensitivityMedium   SensitivityLevel = "medium"
	SensitivityHigh     SensitivityLevel = "high"
	SensitivityCritical SensitivityLevel = "critical"
)

// Receptor is a fixed location at which concentration and health impact are
// evaluated every calculation cycle.
type Receptor struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Type        ReceptorType     `json:"type"`
	Latitude    float64          `json:"latitude"`
	Longitude   float64          `json:"longitude"`
	Height      float64          `json:"height"` // m above ground
	Sensitivity SensitivityLevel `json:"sensitivity"`
	Population  int              `json:"population"`
}

// HealthImpactLevel classifies the expected health effect at a receptor.
type HealthImpactLevel string

const (
	ImpactNegligible HealthImpactLevel = "negligible"
	ImpactMinimal    HealthImpactLevel = "minimal"
	ImpactLow        HealthImpactLevel = "low"
	ImpactModerate   HealthImpactLevel = "moderate"
	ImpactHigh       HealthImpactLevel = "high"
	ImpactSevere     HealthImpactLevel = "severe"
)

// ReceptorImpact is the evaluated exposure at one receptor for one
// calculation. Exactly one impact exists per active receptor inside the
// evaluation radius.
type ReceptorImpact struct {
	ReceptorID    string            `json:"receptor_id"`
	ReceptorName  string            `json:"receptor_name,omitempty"`
	ReceptorType  ReceptorType      `json:"receptor_type"`
	Distance      float64           `json:"distance"`      // m from release point
	Bearing       float64           `json:"bearing"`       // degrees from release point
	Concentration float64           `json:"concentration"` // µg/m³
	Dose          float64           `json:"dose"`          // mg·min/m³ equivalent
	Level         HealthImpactLevel `json:"health_impact_level"`
	Population    int               `json:"population_affected"`
	Flags         []string          `json:"flags,omitempty"` // data-quality notes
}

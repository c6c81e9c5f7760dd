// Package tea defines the shared value types for techno-economic analyses:
// project inputs, calculator results, validation evidence, quality
// assessments, and sensitivity-analysis outputs. These types are consumed by
// the CLI, the API server, and the persistence layer and are treated as
// immutable once a calculation run begins.
package tea

// Technology identifies the clean-energy technology a project uses.
type Technology string

// Supported technology types. Generic is the catch-all for projects that do
// not fit an established category; its benchmark bounds are the widest.
const (
	TechSolar        Technology = "solar"
	TechWind         Technology = "wind"
	TechOffshoreWind Technology = "offshore_wind"
	TechHydrogen     Technology = "hydrogen"
	TechStorage      Technology = "storage"
	TechNuclear      Technology = "nuclear"
	TechGeothermal   Technology = "geothermal"
	TechHydro        Technology = "hydro"
	TechBiomass      Technology = "biomass"
	TechGeneric      Technology = "generic"
)

// Technologies lists every supported technology type.
var Technologies = []Technology{
	TechSolar,
	TechWind,
	TechOffshoreWind,
	TechHydrogen,
	TechStorage,
	TechNuclear,
	TechGeothermal,
	TechHydro,
	TechBiomass,
	TechGeneric,
}

// Valid reports whether t is a known technology type.
func (t Technology) Valid() bool {
	for _, known := range Technologies {
		if t == known {
			return true
		}
	}
	return false
}

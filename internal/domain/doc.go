// Package domain models accidental chemical releases and the atmospheric
// dispersion results computed for them.
//
// # Units
//
// All quantities carry SI units unless noted otherwise:
//
//	temperatures        kelvin
//	pressures           pascal
//	lengths, heights    meters
//	wind speed          m/s, referenced to 10 m above ground
//	emission rate       kg/s (total kg for instantaneous releases)
//	concentration       µg/m³
//	dose                mg·min/m³ equivalent (concentration × exposure / 1e6)
//
// Wind direction follows the meteorological convention: degrees clockwise
// from north, naming the direction the wind blows FROM. A 270° wind blows
// from the west, so the plume travels east along the 90° bearing.
//
// # Stability classes
//
// Atmospheric stability uses the Pasquill-Gifford categorical scale A-G,
// where A is extremely unstable (strong vertical mixing) and G extremely
// stable. An unrecognized class resolves to D (neutral) during calculation
// rather than failing; D is the standard conservative default.
//
// # Release kinds
//
// A release event is a tagged union over its kind. The kind selects which
// branch of the source-strength calculation runs and which optional
// sub-struct must be populated:
//
//	instantaneous  total mass released in one short pulse; uses TotalMass
//	continuous     steady emission; uses ReleaseRate or TotalMass+Duration
//	puddle         evaporating pool; requires Puddle
//	tank-liquid    liquid orifice drain; requires Tank
//	tank-gas       pressurized gas orifice; requires Tank
//
// # Fallback data
//
// Weather snapshots and chemical properties may be substituted with
// documented defaults when a collaborator is unavailable. Substituted data
// is tagged (WeatherSnapshot.Source == "fallback", quality flags on the
// result) so downstream consumers can distinguish authoritative results
// from degraded ones.
package domain

package beam

import "math"

// Physical constants (electron beams).
const (
	MassElectronGeV = 0.510998928e-3 // rest mass [GeV]
	MassElectronEV  = 0.510998928e6  // rest mass [eV]
	SpeedOfLight    = 299792458.0    // [m/s]
)

// Relativistic returns beta and 1/gamma for a beam energy in GeV.
// Zero energy is the ultrarelativistic limit: beta=1, 1/gamma=0.
func Relativistic(energy float64) (beta, gammaInv float64) {
	if energy == 0 {
		return 1, 0
	}
	gammaInv = MassElectronGeV / energy
	v := 1 - gammaInv*gammaInv
	if v <= 0 {
		return 0, gammaInv
	}
	return math.Sqrt(v), gammaInv
}

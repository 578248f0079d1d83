package models

// ControlPair is one correspondence between the source frame (the raster to
// be corrected) and the destination frame (the reference).
type ControlPair struct {
	// Source is the [x, y] position in the source raster
	Source [2]float64 `yaml:"source"`

	// Dest is the [x, y] position in the destination frame
	Dest [2]float64 `yaml:"dest"`

	// Label optionally names the point for reports
	Label string `yaml:"label,omitempty"`
}

// ControlPointFile is the on-disk form of a control point set
type ControlPointFile struct {
	// Degree optionally overrides the configured fit degree
	Degree int `yaml:"degree,omitempty"`

	// Pairs are the control point correspondences
	Pairs []ControlPair `yaml:"pairs"`
}

// CoefficientFile is the on-disk form of a fitted warp
type CoefficientFile struct {
	// Degree is the polynomial degree
	Degree int `yaml:"degree"`

	// Kx and Ky map destination coordinates to source x and y
	Kx []float64 `yaml:"kx"`
	Ky []float64 `yaml:"ky"`

	// Fit quality, filled in when the file was produced by a fit
	RMSError float64 `yaml:"rmsError,omitempty"`
	MaxError float64 `yaml:"maxError,omitempty"`
	Points   int     `yaml:"points,omitempty"`
}

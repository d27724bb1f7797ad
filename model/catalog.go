package model

// CatalogEntry describes one tracked object and its fixed orbital parameters.
type CatalogEntry struct {
	Name           string  `json:"name" mapstructure:"name"`
	LongitudeDeg   float64 `json:"longitude_deg" mapstructure:"longitude_deg"`
	LatitudeDeg    float64 `json:"latitude_deg" mapstructure:"latitude_deg"`
	AltitudeKm     float64 `json:"altitude_km" mapstructure:"altitude_km"`
	InclinationDeg float64 `json:"inclination_deg" mapstructure:"inclination_deg"`
}

// DefaultCatalog returns the reference deployment's satellites in display order.
// GPS and Galileo use their medium Earth orbit altitudes.
func DefaultCatalog() []CatalogEntry {
	return []CatalogEntry{
		{Name: "ISS", LongitudeDeg: 0, LatitudeDeg: 0, AltitudeKm: 400, InclinationDeg: 51.6},
		{Name: "Starlink", LongitudeDeg: 120, LatitudeDeg: 0, AltitudeKm: 550, InclinationDeg: 53},
		{Name: "Hubble", LongitudeDeg: 120, LatitudeDeg: 0, AltitudeKm: 550, InclinationDeg: 28.5},
		{Name: "GPS", LongitudeDeg: 0, LatitudeDeg: 0, AltitudeKm: 20200, InclinationDeg: 55},
		{Name: "Galileo", LongitudeDeg: 0, LatitudeDeg: 0, AltitudeKm: 23222, InclinationDeg: 56},
		{Name: "Landsat", LongitudeDeg: 0, LatitudeDeg: 0, AltitudeKm: 705, InclinationDeg: 98.2},
		{Name: "Sentinel", LongitudeDeg: 0, LatitudeDeg: 0, AltitudeKm: 700, InclinationDeg: 98.6},
		{Name: "ALOS", LongitudeDeg: 0, LatitudeDeg: 0, AltitudeKm: 639, InclinationDeg: 97.9},
		{Name: "Alsat", LongitudeDeg: 0, LatitudeDeg: 0, AltitudeKm: 680, InclinationDeg: 98.1},
		{Name: "Amazônia", LongitudeDeg: 0, LatitudeDeg: 0, AltitudeKm: 764, InclinationDeg: 98.5},
	}
}

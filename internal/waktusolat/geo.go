package waktusolat

import (
	"errors"
	"math"
)

// ErrOutsideMalaysia is returned for coordinates far from every known zone.
var ErrOutsideMalaysia = errors.New("coordinates are outside Malaysia")

// maxZoneDistanceKm bounds how far a point may be from the nearest zone anchor.
const maxZoneDistanceKm = 500

type zoneAnchor struct {
	code     string
	lat, lon float64
}

// Representative points for JAKIM zones, usually the main town of the zone.
var zoneAnchors = []zoneAnchor{
	{"JHR01", 2.4500, 104.5200},
	{"JHR02", 1.4927, 103.7414},
	{"JHR03", 2.0251, 103.3328},
	{"JHR04", 1.8548, 102.9325},
	{"KDH01", 6.1184, 100.3685},
	{"KDH02", 5.6470, 100.4877},
	{"KDH03", 6.2500, 100.6167},
	{"KDH05", 5.3640, 100.5620},
	{"KDH06", 6.3500, 99.8000},
	{"KTN01", 6.1254, 102.2381},
	{"KTN02", 4.8823, 101.9644},
	{"MLK01", 2.1896, 102.2501},
	{"NGS01", 2.4700, 102.2300},
	{"NGS02", 2.7390, 102.2480},
	{"NGS03", 2.7258, 101.9424},
	{"PHG02", 3.8077, 103.3260},
	{"PHG03", 3.4500, 102.4170},
	{"PHG04", 3.5180, 101.9080},
	{"PHG05", 3.3800, 101.8000},
	{"PHG06", 4.4700, 101.3800},
	{"PLS01", 6.4414, 100.1986},
	{"PNG01", 5.4145, 100.3292},
	{"PRK01", 3.9500, 101.2500},
	{"PRK02", 4.5975, 101.0901},
	{"PRK03", 5.1000, 100.9700},
	{"PRK04", 5.5000, 101.3000},
	{"PRK05", 4.0259, 101.0213},
	{"PRK06", 4.8500, 100.7333},
	{"SBH01", 5.8402, 118.1179},
	{"SBH04", 4.2448, 117.8912},
	{"SBH07", 5.9804, 116.0735},
	{"SGR01", 3.0738, 101.5183},
	{"SGR02", 3.3400, 101.2500},
	{"SGR03", 3.0449, 101.4456},
	{"SWK02", 4.3995, 113.9914},
	{"SWK04", 2.2870, 111.8300},
	{"SWK08", 1.5535, 110.3593},
	{"TRG01", 5.3296, 103.1370},
	{"TRG02", 5.8300, 102.5500},
	{"TRG04", 4.7600, 103.4200},
	{"WLY01", 3.1390, 101.6869},
	{"WLY02", 5.2831, 115.2308},
}

// NearestZone returns the zone whose anchor is closest to (lat, lon) and the
// great-circle distance to it in kilometres.
func NearestZone(lat, lon float64) (string, float64, error) {
	best, bestKm := "", math.Inf(1)
	for _, a := range zoneAnchors {
		if d := haversineKm(lat, lon, a.lat, a.lon); d < bestKm {
			best, bestKm = a.code, d
		}
	}
	if bestKm > maxZoneDistanceKm {
		return "", bestKm, ErrOutsideMalaysia
	}
	return best, bestKm, nil
}

func haversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	const earthRadiusKm = 6371.0
	rad := math.Pi / 180
	dLat := (lat2 - lat1) * rad
	dLon := (lon2 - lon1) * rad
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*rad)*math.Cos(lat2*rad)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusKm * math.Asin(math.Sqrt(a))
}

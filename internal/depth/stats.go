package depth

import (
	"github.com/montanaflynn/stats"
)

// RegionStats summarizes the valid depth samples of one ROI in meters.
type RegionStats struct {
	TotalPixels   int     `json:"total_pixels"`
	ValidPixels   int     `json:"valid_pixels"`
	ValidFraction float64 `json:"valid_fraction"`
	Min           float64 `json:"min_m"`
	Max           float64 `json:"max_m"`
	Mean          float64 `json:"mean_m"`
	Median        float64 `json:"median_m"`
	P5            float64 `json:"p5_m"`
	P95           float64 `json:"p95_m"`
	StdDev        float64 `json:"stddev_m"`
}

// RegionStatistics describes the depth distribution inside a box. Values are
// multiplied by depthScale and rounded to 3 decimals like DimensionResult.
// An ROI without valid samples reports only the pixel counts.
func RegionStatistics(img *Image, box BoundingBox, depthScale float64) (RegionStats, error) {
	region, err := ExtractRegion(img, box)
	if err != nil {
		return RegionStats{}, err
	}

	rs := RegionStats{
		TotalPixels: box.Area(),
		ValidPixels: region.Count,
	}
	rs.ValidFraction = roundMillis(float64(region.Count) / float64(rs.TotalPixels))
	if region.Empty() {
		return rs, nil
	}

	data := stats.Float64Data(region.Values)

	// The only error these return is for empty input, which is excluded above.
	lo, _ := data.Min()
	hi, _ := data.Max()
	mean, _ := data.Mean()
	median, _ := data.Median()
	p5, _ := data.PercentileNearestRank(5)
	p95, _ := data.PercentileNearestRank(95)
	sd, _ := data.StandardDeviationPopulation()

	rs.Min = roundMillis(lo * depthScale)
	rs.Max = roundMillis(hi * depthScale)
	rs.Mean = roundMillis(mean * depthScale)
	rs.Median = roundMillis(median * depthScale)
	rs.P5 = roundMillis(p5 * depthScale)
	rs.P95 = roundMillis(p95 * depthScale)
	rs.StdDev = roundMillis(sd * depthScale)
	return rs, nil
}

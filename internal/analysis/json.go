package analysis

import (
	"encoding/json"
	"math"
	"strconv"
)

// jsonNumber encodes NaN and ±Inf as null, the way browsers serialise them,
// so results holding overflowed readings ("1e400", "Infinity") still encode.
type jsonNumber float64

func (n jsonNumber) MarshalJSON() ([]byte, error) {
	v := float64(n)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return []byte("null"), nil
	}
	return strconv.AppendFloat(nil, v, 'g', -1, 64), nil
}

func jsonNumbers(vs []float64) []jsonNumber {
	out := make([]jsonNumber, len(vs))
	for i, v := range vs {
		out[i] = jsonNumber(v)
	}
	return out
}

func (r ReducedRow) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Ex   jsonNumber `json:"Ex"`
		Em   jsonNumber `json:"Em"`
		MaxF jsonNumber `json:"MaxF"`
	}{jsonNumber(r.Ex), jsonNumber(r.Em), jsonNumber(r.MaxF)})
}

func (g HeatmapGrid) MarshalJSON() ([]byte, error) {
	z := make([][]jsonNumber, len(g.Z))
	for i, row := range g.Z {
		z[i] = jsonNumbers(row)
	}
	return json.Marshal(struct {
		X []jsonNumber   `json:"x"`
		Y []jsonNumber   `json:"y"`
		Z [][]jsonNumber `json:"z"`
	}{jsonNumbers(g.X), jsonNumbers(g.Y), z})
}

func (p ExMaxPoint) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Ex   jsonNumber `json:"Ex"`
		MaxF jsonNumber `json:"MaxF"`
		Em   jsonNumber `json:"Em"`
	}{jsonNumber(p.Ex), jsonNumber(p.MaxF), jsonNumber(p.Em)})
}

func (p PeakPoint) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Ex   jsonNumber `json:"Ex"`
		Em   jsonNumber `json:"Em"`
		MaxF jsonNumber `json:"MaxF"`
	}{jsonNumber(p.Ex), jsonNumber(p.Em), jsonNumber(p.MaxF)})
}

func (s IntensitySummary) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Count        int        `json:"count"`
		Min          jsonNumber `json:"min"`
		Max          jsonNumber `json:"max"`
		Mean         jsonNumber `json:"mean"`
		Median       jsonNumber `json:"median"`
		P95          jsonNumber `json:"p95"`
		CellCoverage jsonNumber `json:"cellCoverage"`
	}{s.Count, jsonNumber(s.Min), jsonNumber(s.Max), jsonNumber(s.Mean), jsonNumber(s.Median), jsonNumber(s.P95), jsonNumber(s.CellCoverage)})
}

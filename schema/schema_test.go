package schema

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiagramSub(t *testing.T) {
	d := NewDiagram([]int{1, 0, 1}, []Point{
		{Birth: 0, Death: 1, Dim: 0},
		{Birth: 0.5, Death: 0.5, Dim: 0}, // placeholder
		{Birth: 0.2, Death: 0.9, Dim: 1},
	})
	assert.Equal(t, []int{0, 1}, d.Dimensions)
	assert.True(t, d.Tracks(1))
	assert.False(t, d.Tracks(2))

	pairs, err := d.Sub(0)
	require.NoError(t, err)
	assert.Equal(t, []Pair{{Birth: 0, Death: 1}}, pairs)

	pairs, err = d.Sub(1)
	require.NoError(t, err)
	assert.InDelta(t, 0.7, pairs[0].Persistence(), 1e-12)
}

func TestDiagramTracksUnsortedLiteral(t *testing.T) {
	d := Diagram{Dimensions: []int{1, 0}, Points: []Point{{Birth: 0, Death: 1, Dim: 0}}}
	assert.True(t, d.Tracks(0))
	assert.True(t, d.Tracks(1))
	assert.False(t, d.Tracks(2))

	pairs, err := d.Sub(0)
	require.NoError(t, err)
	assert.Equal(t, []Pair{{Birth: 0, Death: 1}}, pairs)
}

func TestDiagramSubErrors(t *testing.T) {
	tests := []struct {
		name  string
		point Point
		msg   string
	}{
		{name: "nan", point: Point{Birth: math.NaN(), Death: 1}, msg: "NaN"},
		{name: "infinite", point: Point{Birth: 0, Death: math.Inf(1)}, msg: "infinite"},
		{name: "death before birth", point: Point{Birth: 2, Death: 1}, msg: "precedes"},
		{name: "untracked", point: Point{Birth: 0, Death: 1, Dim: 3}, msg: "not tracked"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDiagram([]int{0}, []Point{tt.point})
			_, err := d.Sub(0)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestSameDimensions(t *testing.T) {
	seq := DiagramSequence{
		NewDiagram([]int{0, 1}, nil),
		NewDiagram([]int{1, 0}, nil),
		NewDiagram([]int{0}, nil),
	}
	assert.Equal(t, 2, seq.SameDimensions([]int{1, 0}))
	assert.Equal(t, -1, seq[:2].SameDimensions([]int{0, 1}))
}

func TestDiagramFileToSequence(t *testing.T) {
	file := DiagramFile{
		HomologyDimensions: []int{0, 1},
		Diagrams: []DiagramEntry{
			{Points: [][]float64{{0, 1, 0}}},
			{Dimensions: []int{0}, Points: [][]float64{{0, 2, 0}}},
		},
	}
	seq, err := file.ToSequence()
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, seq[0].Dimensions)
	assert.Equal(t, []int{0}, seq[1].Dimensions)

	back := NewDiagramFile([]int{0, 1}, seq)
	assert.Nil(t, back.Diagrams[0].Dimensions, "inherited dimensions are not repeated")
	assert.Equal(t, []int{0}, back.Diagrams[1].Dimensions)

	bad := DiagramFile{HomologyDimensions: []int{0}, Diagrams: []DiagramEntry{{Points: [][]float64{{0, 1}}}}}
	_, err = bad.ToSequence()
	assert.Error(t, err)

	fractional := DiagramFile{HomologyDimensions: []int{0}, Diagrams: []DiagramEntry{{Points: [][]float64{{0, 1, 0.5}}}}}
	_, err = fractional.ToSequence()
	assert.Error(t, err)
}

func TestFeaturizationParamsClone(t *testing.T) {
	order := 2.0
	p := FeaturizationParams{
		HomologyDimensions: []int{0, 1},
		Samplings:          map[int][]float64{0: {0, 1}},
		StepSizes:          map[int]float64{0: 1},
		Order:              &order,
	}
	c := p.Clone()
	c.HomologyDimensions[0] = 9
	c.Samplings[0][0] = 9
	c.StepSizes[0] = 9
	*c.Order = 9

	assert.Equal(t, []int{0, 1}, p.HomologyDimensions)
	assert.Equal(t, 0.0, p.Samplings[0][0])
	assert.Equal(t, 1.0, p.StepSizes[0])
	assert.Equal(t, 2.0, *p.Order)
}

func TestFeaturizationParamsJSON(t *testing.T) {
	inf := math.Inf(1)
	p := FeaturizationParams{
		HomologyDimensions: []int{0},
		Kind:               BottleneckKind,
		P:                  inf,
		Order:              &inf,
		Workers:            8,
	}
	data, err := json.Marshal(p)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"p":"inf"`)
	assert.Contains(t, string(data), `"order":"inf"`)
	assert.NotContains(t, string(data), "Workers")

	var back FeaturizationParams
	require.NoError(t, json.Unmarshal(data, &back))
	assert.True(t, math.IsInf(back.P, 1))
	require.NotNil(t, back.Order)
	assert.True(t, math.IsInf(*back.Order, 1))
	assert.Equal(t, BottleneckKind, back.Kind)
	assert.Zero(t, back.Workers)

	require.NoError(t, json.Unmarshal([]byte(`{"kind":"landscape","p":2,"order":"1"}`), &back))
	assert.Equal(t, 2.0, back.P)
	assert.Equal(t, 1.0, *back.Order)

	assert.Error(t, json.Unmarshal([]byte(`{"p":"two"}`), &back))
}

func TestEffectiveP(t *testing.T) {
	p := FeaturizationParams{Kind: WassersteinKind, P: 2}
	assert.Equal(t, 2.0, p.EffectiveP())
	p.Kind = BottleneckKind
	assert.True(t, math.IsInf(p.EffectiveP(), 1))
}

func TestScalars(t *testing.T) {
	single := DerivativeSignal{Dimensions: []int{1}, PerDimension: [][]float64{{1}, {2}}}
	assert.Equal(t, []float64{1, 2}, single.Scalars())

	multi := DerivativeSignal{Dimensions: []int{0, 1}, PerDimension: [][]float64{{1, 2}}}
	assert.Nil(t, multi.Scalars())

	multi.Reduced = true
	multi.Values = []float64{3}
	assert.Equal(t, []float64{3}, multi.Scalars())
}

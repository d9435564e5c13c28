package schema

import (
	"fmt"
	"slices"
)

// DiagramFile is the on-disk and over-the-wire shape of a diagram sequence.
// Each point is a (birth, death, dim) triple.
type DiagramFile struct {
	HomologyDimensions []int             `json:"homology_dimensions" yaml:"homology_dimensions"`
	Samplings          map[int][]float64 `json:"samplings,omitempty" yaml:"samplings,omitempty"`
	StepSizes          map[int]float64   `json:"step_sizes,omitempty" yaml:"step_sizes,omitempty"`
	Diagrams           []DiagramEntry    `json:"diagrams" yaml:"diagrams"`
}

// DiagramEntry is a single diagram inside a DiagramFile.
// An entry without dimensions inherits the file's homology dimensions.
type DiagramEntry struct {
	Dimensions []int       `json:"dimensions,omitempty" yaml:"dimensions,omitempty"`
	Points     [][]float64 `json:"points" yaml:"points"`
}

// ToSequence converts the file into a DiagramSequence.
func (f DiagramFile) ToSequence() (DiagramSequence, error) {
	seq := make(DiagramSequence, 0, len(f.Diagrams))
	for i, entry := range f.Diagrams {
		dims := entry.Dimensions
		if len(dims) == 0 {
			dims = f.HomologyDimensions
		}
		points := make([]Point, 0, len(entry.Points))
		for j, triple := range entry.Points {
			if len(triple) != 3 {
				return nil, fmt.Errorf("diagram %d point %d: expected [birth, death, dim], got %d values", i, j, len(triple))
			}
			dim := int(triple[2])
			if float64(dim) != triple[2] {
				return nil, fmt.Errorf("diagram %d point %d: homology dimension %v is not an integer", i, j, triple[2])
			}
			points = append(points, Point{Birth: triple[0], Death: triple[1], Dim: dim})
		}
		seq = append(seq, NewDiagram(dims, points))
	}
	return seq, nil
}

// NewDiagramFile converts a sequence back into its file shape.
func NewDiagramFile(dims []int, seq DiagramSequence) DiagramFile {
	file := DiagramFile{
		HomologyDimensions: NormalizeDimensions(dims),
		Diagrams:           make([]DiagramEntry, 0, len(seq)),
	}
	for _, d := range seq {
		entry := DiagramEntry{Points: make([][]float64, 0, len(d.Points))}
		if !slices.Equal(d.Dimensions, file.HomologyDimensions) {
			entry.Dimensions = slices.Clone(d.Dimensions)
		}
		for _, p := range d.Points {
			entry.Points = append(entry.Points, []float64{p.Birth, p.Death, float64(p.Dim)})
		}
		file.Diagrams = append(file.Diagrams, entry)
	}
	return file
}

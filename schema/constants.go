package schema

// Custom string types for type safety.
type (
	// Kind represents the featurization or diagram distance used for the derivative.
	Kind string

	// LayerPolicy controls how landscape layers are compared across windows
	// with different point counts.
	LayerPolicy string

	// OutputMode represents the format of the output.
	OutputMode string

	// DatabaseBackend represents the database backend for caching.
	DatabaseBackend string
)

// Closed-form featurizations (vectorized on a sampling grid).
const (
	LandscapeKind  Kind = "landscape" // default
	BettiKind      Kind = "betti"
	SilhouetteKind Kind = "silhouette"
)

// Generic diagram distances (computed pair-wise, no feature vector).
const (
	BottleneckKind  Kind = "bottleneck"
	WassersteinKind Kind = "wasserstein"
)

// All landscape layer policies supported.
const (
	PadLayers       LayerPolicy = "pad" // default
	SharedMinLayers LayerPolicy = "shared-min"
)

// All output modes supported.
const (
	CSVOut     OutputMode = "csv"
	TextOut    OutputMode = "text" // default
	JSONOut    OutputMode = "json"
	ParquetOut OutputMode = "parquet"
)

// All cache backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite" // default
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	NoneBackend       DatabaseBackend = "none"
)

// ReducedDim is the dimension label used for values reduced across homology dimensions.
const ReducedDim = -1

// AllKinds returns a list of all supported kinds.
var AllKinds = []Kind{LandscapeKind, BettiKind, SilhouetteKind, BottleneckKind, WassersteinKind}

// ValidKinds lists all valid kinds.
var ValidKinds = map[Kind]struct{}{
	LandscapeKind:   {},
	BettiKind:       {},
	SilhouetteKind:  {},
	BottleneckKind:  {},
	WassersteinKind: {},
}

// ValidLayerPolicies lists all valid landscape layer policies.
var ValidLayerPolicies = map[LayerPolicy]struct{}{
	PadLayers:       {},
	SharedMinLayers: {},
}

// ValidOutputModes lists all valid output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	CSVOut:     {},
	TextOut:    {},
	JSONOut:    {},
	ParquetOut: {},
}

// ValidDatabaseBackends lists all valid cache backends.
var ValidDatabaseBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}

// IsClosedForm reports whether the kind is featurized on a sampling grid
// rather than computed as a direct diagram distance.
func (k Kind) IsClosedForm() bool {
	switch k {
	case LandscapeKind, BettiKind, SilhouetteKind:
		return true
	default:
		return false
	}
}

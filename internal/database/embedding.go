package database

import (
	"math"

	"github.com/kamilpajak/joule/pkg/tea"
	"github.com/pgvector/pgvector-go"
)

// embeddingDims must match the vector(N) column in the projects migration.
const embeddingDims = 8

// projectEmbedding maps a project's numeric parameters onto a fixed-length
// unit-scale vector so cosine distance ranks past projects by economic
// similarity. Cost magnitudes are log-compressed to keep multi-GW nuclear
// and small storage projects on comparable axes; rates are already in [0,1].
func projectEmbedding(in tea.Input) pgvector.Vector {
	v := make([]float32, embeddingDims)
	v[0] = float32(math.Log10(1+in.CapacityMW) / 4)
	v[1] = float32(in.CapacityFactor / 100)
	v[2] = float32(math.Log10(1+in.CapexPerKW) / 5)
	v[3] = float32(math.Log10(1+in.OpexPerKWYear) / 3)
	v[4] = float32(in.DiscountRate)
	v[5] = float32(float64(in.LifetimeYears) / 100)
	v[6] = float32(math.Log10(1+in.ElectricityPrice*100) / 2)
	v[7] = float32(in.PriceEscalation * 10)
	return pgvector.NewVector(v)
}

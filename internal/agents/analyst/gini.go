package analyst

import "sort"

// giniCoefficient implements spec §4.6's holder-concentration formula:
// sort ascending, gini = (2*sum((i+1)*x_i)) / (n*n*mu) - (n+1)/n,
// clamped to [0,1]; returns 0 if n<=1 or mu=0.
func giniCoefficient(values []float64) float64 {
	n := len(values)
	if n <= 1 {
		return 0
	}

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	var sum, weightedSum float64
	for i, v := range sorted {
		sum += v
		weightedSum += float64(i+1) * v
	}

	mu := sum / float64(n)
	if mu == 0 {
		return 0
	}

	gini := (2*weightedSum)/(float64(n)*float64(n)*mu) - float64(n+1)/float64(n)
	if gini < 0 {
		gini = 0
	}
	if gini > 1 {
		gini = 1
	}
	return gini
}

package analytics

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"
)

// Clustering defaults.
const (
	DefaultClusters      = 6
	DefaultSeed          = 42
	DefaultRestarts      = 10
	DefaultMaxIterations = 300
)

// KMeansConfig parameterises KMeans.  Zero fields take the defaults above.
type KMeansConfig struct {
	K             int
	Seed          int64
	Restarts      int
	MaxIterations int
}

func (c KMeansConfig) withDefaults() KMeansConfig {
	if c.K <= 0 {
		c.K = DefaultClusters
	}
	if c.Seed == 0 {
		c.Seed = DefaultSeed
	}
	if c.Restarts <= 0 {
		c.Restarts = DefaultRestarts
	}
	if c.MaxIterations <= 0 {
		c.MaxIterations = DefaultMaxIterations
	}
	return c
}

// KMeansResult is the best partition found.  Labels are compacted to
// 0..len(Centroids)-1 in order of first appearance.
type KMeansResult struct {
	K         int         `json:"k"`
	Labels    []int       `json:"labels"`
	Centroids [][]float64 `json:"centroids"`
	Inertia   float64     `json:"inertia"`
}

// EffectiveK returns max(1, min(k, n)).
func EffectiveK(k, n int) int {
	if k > n {
		k = n
	}
	if k < 1 {
		k = 1
	}
	return k
}

// KMeans partitions points with k-means++ seeding and Lloyd iterations,
// keeping the lowest-inertia run out of cfg.Restarts.  A single random
// source seeded with cfg.Seed drives every restart, so identical input
// yields identical labels.  Empty input gives an empty result.
func KMeans(points [][]float64, cfg KMeansConfig) KMeansResult {
	if len(points) == 0 {
		return KMeansResult{Labels: []int{}, Centroids: [][]float64{}}
	}
	cfg = cfg.withDefaults()
	k := EffectiveK(cfg.K, len(points))
	rng := rand.New(rand.NewSource(cfg.Seed))

	var (
		best        []int
		bestCents   [][]float64
		bestInertia = math.Inf(1)
	)
	for r := 0; r < cfg.Restarts; r++ {
		cents := seedPlusPlus(points, k, rng)
		labels, inertia := lloyd(points, cents, cfg.MaxIterations)
		if best == nil || inertia < bestInertia {
			best, bestCents, bestInertia = labels, cents, inertia
		}
	}

	labels, cents := compact(best, bestCents)
	return KMeansResult{K: k, Labels: labels, Centroids: cents, Inertia: bestInertia}
}

// seedPlusPlus picks k initial centroids, each new one sampled with
// probability proportional to its squared distance from the nearest centroid
// chosen so far.
func seedPlusPlus(points [][]float64, k int, rng *rand.Rand) [][]float64 {
	cents := make([][]float64, 0, k)
	cents = append(cents, clonePoint(points[rng.Intn(len(points))]))

	d2 := make([]float64, len(points))
	for len(cents) < k {
		var total float64
		for i, p := range points {
			d2[i] = math.Inf(1)
			for _, c := range cents {
				if d := sqDist(p, c); d < d2[i] {
					d2[i] = d
				}
			}
			total += d2[i]
		}

		var idx int
		if total <= 0 {
			idx = rng.Intn(len(points))
		} else {
			target := rng.Float64() * total
			var acc float64
			for i, d := range d2 {
				if d <= 0 {
					continue
				}
				idx = i
				acc += d
				if acc > target {
					break
				}
			}
		}
		cents = append(cents, clonePoint(points[idx]))
	}
	return cents
}

// lloyd refines cents in place and returns the final labels and inertia.
func lloyd(points [][]float64, cents [][]float64, maxIter int) ([]int, float64) {
	labels := make([]int, len(points))
	for i := range labels {
		labels[i] = -1
	}
	for it := 0; it < maxIter; it++ {
		if !assign(points, cents, labels) {
			break
		}
		update(points, cents, labels)
	}
	assign(points, cents, labels)

	var inertia float64
	for i, p := range points {
		inertia += sqDist(p, cents[labels[i]])
	}
	return labels, inertia
}

// assign moves every point to its nearest centroid, ties going to the lower
// index, and reports whether any label changed.
func assign(points [][]float64, cents [][]float64, labels []int) bool {
	changed := false
	for i, p := range points {
		best, bestD := 0, math.Inf(1)
		for j, c := range cents {
			if d := sqDist(p, c); d < bestD {
				best, bestD = j, d
			}
		}
		if labels[i] != best {
			labels[i] = best
			changed = true
		}
	}
	return changed
}

// update recomputes centroids as cluster means.  An empty cluster takes over
// the point farthest from its own centroid in a cluster that can spare it.
func update(points [][]float64, cents [][]float64, labels []int) {
	dim := len(points[0])
	counts := make([]int, len(cents))
	sums := make([][]float64, len(cents))
	for j := range sums {
		sums[j] = make([]float64, dim)
	}
	for i, p := range points {
		floats.Add(sums[labels[i]], p)
		counts[labels[i]]++
	}
	for j := range cents {
		if counts[j] > 0 {
			floats.Scale(1/float64(counts[j]), sums[j])
			copy(cents[j], sums[j])
		}
	}
	for j := range cents {
		if counts[j] > 0 {
			continue
		}
		far, farD := -1, -1.0
		for i, p := range points {
			if counts[labels[i]] <= 1 {
				continue
			}
			if d := sqDist(p, cents[labels[i]]); d > farD {
				far, farD = i, d
			}
		}
		if far < 0 {
			continue
		}
		counts[labels[far]]--
		labels[far] = j
		counts[j] = 1
		copy(cents[j], points[far])
	}
}

// compact renumbers labels by first appearance and drops unused centroids.
func compact(labels []int, cents [][]float64) ([]int, [][]float64) {
	remap := make(map[int]int)
	outCents := make([][]float64, 0, len(cents))
	out := make([]int, len(labels))
	for i, l := range labels {
		id, ok := remap[l]
		if !ok {
			id = len(outCents)
			remap[l] = id
			outCents = append(outCents, cents[l])
		}
		out[i] = id
	}
	return out, outCents
}

func sqDist(a, b []float64) float64 {
	d := floats.Distance(a, b, 2)
	return d * d
}

func clonePoint(p []float64) []float64 {
	out := make([]float64, len(p))
	copy(out, p)
	return out
}

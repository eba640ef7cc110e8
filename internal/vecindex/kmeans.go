package vecindex

import (
	"math"
	"sort"
)

const (
	indexFlat      = "flat"
	indexClustered = "clustered"

	kmeansIterations = 10
)

// cluster partitions the snapshot's vectors with k-means so searches can
// probe only the nearest clusters. Centroid seeding is deterministic
// (evenly spaced over the id-ordered vectors), so identical inputs
// produce identical indexes.
func (sn *snapshot) cluster() {
	n := len(sn.vectors)
	k := int(math.Sqrt(float64(n)))
	if k < 2 {
		k = 2
	}
	if k > n {
		k = n
	}

	centroids := make([][]float32, k)
	for i := 0; i < k; i++ {
		seed := sn.vectors[i*n/k]
		centroids[i] = append([]float32(nil), seed...)
	}

	assignments := make([]int, n)
	for iter := 0; iter < kmeansIterations; iter++ {
		changed := false
		for i, v := range sn.vectors {
			best := nearestCentroid(v, centroids)
			if assignments[i] != best {
				assignments[i] = best
				changed = true
			}
		}
		if iter > 0 && !changed {
			break
		}
		recomputeCentroids(centroids, sn.vectors, assignments)
	}

	clusters := make([][]int, k)
	for i, c := range assignments {
		clusters[c] = append(clusters[c], i)
	}

	sn.centroids = centroids
	sn.clusters = clusters
	sn.nprobe = defaultNprobe(k)
}

// probe returns the member indices of the nprobe clusters whose
// centroids are nearest to vec.
func (sn *snapshot) probe(vec []float32) []int {
	type centroidDist struct {
		cluster int
		dist    float64
	}
	dists := make([]centroidDist, len(sn.centroids))
	for i, c := range sn.centroids {
		dists[i] = centroidDist{cluster: i, dist: l2Distance(vec, c)}
	}
	sort.Slice(dists, func(a, b int) bool {
		if dists[a].dist != dists[b].dist {
			return dists[a].dist < dists[b].dist
		}
		return dists[a].cluster < dists[b].cluster
	})

	nprobe := sn.nprobe
	if nprobe > len(dists) {
		nprobe = len(dists)
	}

	var members []int
	for _, cd := range dists[:nprobe] {
		members = append(members, sn.clusters[cd.cluster]...)
	}
	return members
}

func nearestCentroid(v []float32, centroids [][]float32) int {
	best := 0
	bestDist := math.Inf(1)
	for i, c := range centroids {
		if d := l2Distance(v, c); d < bestDist {
			best = i
			bestDist = d
		}
	}
	return best
}

// recomputeCentroids moves each centroid to the mean of its members.
// Empty clusters keep their previous centroid.
func recomputeCentroids(centroids [][]float32, vectors [][]float32, assignments []int) {
	dim := len(vectors[0])
	sums := make([][]float64, len(centroids))
	counts := make([]int, len(centroids))
	for i := range sums {
		sums[i] = make([]float64, dim)
	}
	for i, v := range vectors {
		c := assignments[i]
		counts[c]++
		for j, x := range v {
			sums[c][j] += float64(x)
		}
	}
	for i := range centroids {
		if counts[i] == 0 {
			continue
		}
		for j := 0; j < dim; j++ {
			centroids[i][j] = float32(sums[i][j] / float64(counts[i]))
		}
	}
}

func defaultNprobe(k int) int {
	nprobe := k / 8
	if nprobe < 2 {
		nprobe = 2
	}
	if nprobe > k {
		nprobe = k
	}
	return nprobe
}

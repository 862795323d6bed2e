// Package score implements the final scoring function over a Map's current
// river ownership (spec.md §4.3).
package score

import (
	"github.com/gennai/arena/internal/mapmodel"
)

// Future is a punter's declared {source mine, target site} bonus claim.
type Future struct {
	Source int
	Target int
}

// Result is one punter's score, plus its not-yet-realized futures bonus for
// progress logging (spec.md §4.3's provisional mode).
type Result struct {
	Score           int64
	PotentialChange int64
}

// Compute returns the final score for punter p given the map's current
// ownership and p's declared futures.
func Compute(m *mapmodel.Map, p int, futures []Future) int64 {
	return compute(m, p, futures, false).Score
}

// Provisional returns the current score for punter p plus the sum of
// futures bonuses not yet realized (used for --log_score_every_step;
// spec.md §4.3). It never subtracts an unrealized future.
func Provisional(m *mapmodel.Map, p int, futures []Future) Result {
	return compute(m, p, futures, true)
}

func compute(m *mapmodel.Map, p int, futures []Future, provisional bool) Result {
	owned := ownedAdjacency(m, p)

	var result Result
	for _, mine := range m.Mines {
		visited := bfsOwned(owned, mine)
		for site := range visited {
			if d, ok := m.Dist(mine, site); ok {
				result.Score += int64(d) * int64(d)
			}
		}
		for _, f := range futures {
			if f.Source != mine {
				continue
			}
			d, ok := m.Dist(mine, f.Target)
			if !ok {
				continue // unreachable target: no bonus, no penalty, no potential change
			}
			cube := int64(d) * int64(d) * int64(d)
			if visited[f.Target] {
				result.Score += cube
			} else if provisional {
				result.PotentialChange += cube
			} else {
				result.Score -= cube
			}
		}
	}
	return result
}

// ownedAdjacency builds an adjacency list containing only rivers owned by p.
func ownedAdjacency(m *mapmodel.Map, p int) map[int][]int {
	adj := make(map[int][]int)
	for _, r := range m.Rivers {
		if r.Owner != p {
			continue
		}
		adj[r.Source] = append(adj[r.Source], r.Target)
		adj[r.Target] = append(adj[r.Target], r.Source)
	}
	return adj
}

// bfsOwned traverses adj from a single mine, always including the mine
// itself even if it has no owned edges (spec.md §4.3 step 2).
func bfsOwned(adj map[int][]int, from int) map[int]bool {
	visited := map[int]bool{from: true}
	queue := []int{from}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, next := range adj[cur] {
			if visited[next] {
				continue
			}
			visited[next] = true
			queue = append(queue, next)
		}
	}
	return visited
}

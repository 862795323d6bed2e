// Package mapmodel parses a map file and precomputes the per-mine distance
// table used by the scorer (spec.md §3, §4.2).
package mapmodel

import (
	json "github.com/goccy/go-json"

	"github.com/gennai/arena/internal/arenaerr"
)

// Unclaimed identifies a river with no owner yet.
const Unclaimed = -1

// rawMap mirrors the map file's JSON schema (spec.md §6).
type rawMap struct {
	Sites []struct {
		ID int `json:"id"`
	} `json:"sites"`
	Mines  []int `json:"mines"`
	Rivers []struct {
		Source int `json:"source"`
		Target int `json:"target"`
	} `json:"rivers"`
}

// River is a normalized, unordered edge: Source < Target always.
type River struct {
	Source int
	Target int
	Owner  int // Unclaimed, or a punter id
}

// Map is the parsed, precomputed game board. Rivers is the only mutable
// field after construction: owners flip from Unclaimed to a punter id.
type Map struct {
	Sites  []int
	Mines  []int
	Rivers []River

	// Raw holds the exact bytes the map file decoded from, re-sent verbatim
	// in each punter's setup payload (spec.md §4.5).
	Raw json.RawMessage

	adj  map[int][]int
	dist map[int]map[int]int // dist[mine][site], absent entry means unreachable
}

// Parse decodes raw map JSON and builds the Map, including the per-mine BFS
// distance table. Returns a KindMapSchema error on any structural problem.
func Parse(raw []byte) (*Map, error) {
	var rm rawMap
	if err := json.Unmarshal(raw, &rm); err != nil {
		return nil, arenaerr.New(arenaerr.KindMapSchema, "decode map json: %v", err)
	}
	if len(rm.Sites) == 0 {
		return nil, arenaerr.New(arenaerr.KindMapSchema, "map has no sites")
	}

	m := &Map{
		Raw:  append(json.RawMessage{}, raw...),
		Mines: append([]int{}, rm.Mines...),
		adj:  make(map[int][]int, len(rm.Sites)),
		dist: make(map[int]map[int]int, len(rm.Mines)),
	}
	siteSet := make(map[int]bool, len(rm.Sites))
	for _, s := range rm.Sites {
		m.Sites = append(m.Sites, s.ID)
		siteSet[s.ID] = true
		if _, ok := m.adj[s.ID]; !ok {
			m.adj[s.ID] = nil
		}
	}

	seen := make(map[[2]int]bool, len(rm.Rivers))
	for _, r := range rm.Rivers {
		u, v := normalize(r.Source, r.Target)
		if !siteSet[u] || !siteSet[v] {
			return nil, arenaerr.New(arenaerr.KindMapSchema, "river (%d,%d) references unknown site", u, v)
		}
		key := [2]int{u, v}
		if seen[key] {
			continue // duplicate river in the input: keep the graph, drop the dup
		}
		seen[key] = true
		m.Rivers = append(m.Rivers, River{Source: u, Target: v, Owner: Unclaimed})
		m.adj[u] = append(m.adj[u], v)
		m.adj[v] = append(m.adj[v], u)
	}

	for _, mine := range m.Mines {
		m.dist[mine] = m.bfs(mine)
	}
	return m, nil
}

// normalize orders a river pair so source < target.
func normalize(a, b int) (int, int) {
	if a > b {
		return b, a
	}
	return a, b
}

func (m *Map) bfs(from int) map[int]int {
	dist := map[int]int{from: 0}
	queue := []int{from}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, next := range m.adj[cur] {
			if _, visited := dist[next]; visited {
				continue
			}
			dist[next] = dist[cur] + 1
			queue = append(queue, next)
		}
	}
	return dist
}

// Dist returns hops(mine, site), and false if site is unreachable from mine
// (spec.md §3's dist table, with ∞ represented by the ok=false case).
func (m *Map) Dist(mine, site int) (int, bool) {
	d, ok := m.dist[mine]
	if !ok {
		return 0, false
	}
	hops, ok := d[site]
	return hops, ok
}

// Claim marks the normalized (source,target) river as owned by punter,
// returning false if the river doesn't exist or is already claimed. This is
// the only permitted mutation of a Map (spec.md §4.2).
func (m *Map) Claim(source, target, punter int) bool {
	u, v := normalize(source, target)
	for i := range m.Rivers {
		if m.Rivers[i].Source == u && m.Rivers[i].Target == v {
			if m.Rivers[i].Owner != Unclaimed {
				return false
			}
			m.Rivers[i].Owner = punter
			return true
		}
	}
	return false
}

// Find returns the river at the normalized (source,target) pair, if any.
func (m *Map) Find(source, target int) (River, bool) {
	u, v := normalize(source, target)
	for _, r := range m.Rivers {
		if r.Source == u && r.Target == v {
			return r, true
		}
	}
	return River{}, false
}

// NumRivers is the total turn count for a match (spec.md invariant P1).
func (m *Map) NumRivers() int { return len(m.Rivers) }

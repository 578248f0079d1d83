package registration

import (
	"sort"

	"gonum.org/v1/gonum/spatial/kdtree"

	"polywarp/pkg/polywarp"
)

// coincidenceTolerance is the distance below which two destination control
// points are reported as coincident.
const coincidenceTolerance = 1e-6

// controlPoint is a destination point that remembers its position in the
// control point list, since building the tree reorders the points.
type controlPoint struct {
	polywarp.Point
	index int
}

// Compare implements the kdtree.Comparable interface
func (p controlPoint) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	q := c.(controlPoint)
	switch d {
	case 0:
		return p.X - q.X
	case 1:
		return p.Y - q.Y
	default:
		panic("illegal dimension")
	}
}

func (p controlPoint) Dims() int { return 2 }

// Distance returns the squared Euclidean distance
func (p controlPoint) Distance(c kdtree.Comparable) float64 {
	q := c.(controlPoint)
	dx := p.X - q.X
	dy := p.Y - q.Y
	return dx*dx + dy*dy
}

type controlPoints []controlPoint

func (p controlPoints) Index(i int) kdtree.Comparable         { return p[i] }
func (p controlPoints) Len() int                              { return len(p) }
func (p controlPoints) Slice(start, end int) kdtree.Interface { return p[start:end] }

func (p controlPoints) Pivot(d kdtree.Dim) int {
	plane := pointPlane{controlPoints: p, Dim: d}
	return kdtree.Partition(plane, kdtree.MedianOfMedians(plane))
}

// pointPlane sorts control points along one axis for kdtree.Partition
type pointPlane struct {
	controlPoints
	kdtree.Dim
}

func (p pointPlane) Less(i, j int) bool {
	if p.Dim == 0 {
		return p.controlPoints[i].X < p.controlPoints[j].X
	}
	return p.controlPoints[i].Y < p.controlPoints[j].Y
}

func (p pointPlane) Slice(start, end int) kdtree.SortSlicer {
	return pointPlane{controlPoints: p.controlPoints[start:end], Dim: p.Dim}
}

func (p pointPlane) Swap(i, j int) {
	p.controlPoints[i], p.controlPoints[j] = p.controlPoints[j], p.controlPoints[i]
}

// CoincidentPoints returns the index pairs (i < j) of points closer than tol
// to each other, sorted by i then j.
func CoincidentPoints(pts []polywarp.Point, tol float64) [][2]int {
	if len(pts) < 2 {
		return nil
	}
	cps := make(controlPoints, len(pts))
	for i, p := range pts {
		cps[i] = controlPoint{Point: p, index: i}
	}
	tree := kdtree.New(cps, false)

	var pairs [][2]int
	for i, p := range pts {
		keeper := kdtree.NewDistKeeper(tol * tol)
		tree.NearestSet(keeper, controlPoint{Point: p, index: i})
		for _, item := range keeper.Heap {
			// Skip the sentinel value
			if item.Comparable == nil || item.Dist > tol*tol {
				continue
			}
			j := item.Comparable.(controlPoint).index
			if j > i {
				pairs = append(pairs, [2]int{i, j})
			}
		}
	}
	sort.Slice(pairs, func(a, b int) bool {
		if pairs[a][0] != pairs[b][0] {
			return pairs[a][0] < pairs[b][0]
		}
		return pairs[a][1] < pairs[b][1]
	})
	return pairs
}

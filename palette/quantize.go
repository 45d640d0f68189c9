package palette

import (
	"errors"
	"image"
	"image/color"

	"github.com/bodgit/vox2rle/vox"
	"github.com/ericpauley/go-quantize/quantize"
)

const refineIterations = 8

var errBudget = errors.New("palette: budget must allow at least one color")

// weighted is a palette entry and the number of voxels using it
type weighted struct {
	index int
	c     color.RGBA
	n     int
}

func sqDiff(a, b uint8) int {
	d := int(a) - int(b)
	return d * d
}

func distance(a, b color.RGBA) int {
	return sqDiff(a.R, b.R) + sqDiff(a.G, b.G) + sqDiff(a.B, b.B) + sqDiff(a.A, b.A)
}

// nearest returns the index of the center closest to c, preferring the
// lowest index on a tie
func nearest(c color.RGBA, centers []color.RGBA) (int, int) {
	best, bestDist := 0, -1
	for i, center := range centers {
		if d := distance(c, center); bestDist < 0 || d < bestDist {
			best, bestDist = i, d
		}
	}
	return best, bestDist
}

func weights(v *vox.Volume, p Palette) []weighted {
	counts := make([]int, len(p))
	for _, c := range v.Voxels {
		counts[c]++
	}
	var colors []weighted
	for i := 1; i < len(p); i++ {
		if counts[i] > 0 {
			colors = append(colors, weighted{index: i, c: p[i], n: counts[i]})
		}
	}
	return colors
}

// usage builds a one row image with a pixel per non-empty voxel so the
// quantizer weighs each color by how often it is used. Palette bytes are not
// premultiplied so they are treated as NRGBA.
func usage(v *vox.Volume, p Palette) image.Image {
	n := 0
	for _, c := range v.Voxels {
		if c != 0 {
			n++
		}
	}
	m := image.NewNRGBA(image.Rect(0, 0, n, 1))
	x := 0
	for _, c := range v.Voxels {
		if c != 0 {
			m.SetNRGBA(x, 0, color.NRGBA(p[c]))
			x++
		}
	}
	return m
}

func medianCutSeeds(v *vox.Volume, p Palette, k int) []color.RGBA {
	q := quantize.MedianCutQuantizer{Aggregation: quantize.Mean}
	qp := q.Quantize(make(color.Palette, 0, k), usage(v, p))
	seeds := make([]color.RGBA, 0, len(qp))
	for _, c := range qp {
		seeds = append(seeds, color.RGBA(color.NRGBAModel.Convert(c).(color.NRGBA)))
	}
	return seeds
}

// farthestSeeds starts from the most used color and repeatedly adds the
// color furthest from every seed chosen so far
func farthestSeeds(colors []weighted, k int) []color.RGBA {
	first := 0
	for i, w := range colors {
		if w.n > colors[first].n {
			first = i
		}
	}
	seeds := []color.RGBA{colors[first].c}
	for len(seeds) < k {
		pick, pickDist := -1, 0
		for i, w := range colors {
			if _, d := nearest(w.c, seeds); d > pickDist {
				pick, pickDist = i, d
			}
		}
		if pick < 0 {
			break
		}
		seeds = append(seeds, colors[pick].c)
	}
	return seeds
}

// refine moves each center to the weighted mean of the colors closest to it.
// A center nothing is closest to is moved onto the color furthest from its
// own center. It returns the final centers, the center chosen for each color
// and the weighted squared error.
func refine(colors []weighted, seeds []color.RGBA) ([]color.RGBA, []int, int64) {
	centers := append([]color.RGBA(nil), seeds...)
	assign := make([]int, len(colors))
	dists := make([]int, len(colors))

	for iter := 0; iter < refineIterations; iter++ {
		for i, w := range colors {
			assign[i], dists[i] = nearest(w.c, centers)
		}

		sums := make([][5]int, len(centers))
		for i, w := range colors {
			s := &sums[assign[i]]
			s[0] += int(w.c.R) * w.n
			s[1] += int(w.c.G) * w.n
			s[2] += int(w.c.B) * w.n
			s[3] += int(w.c.A) * w.n
			s[4] += w.n
		}

		changed := false
		for j, s := range sums {
			var next color.RGBA
			if n := s[4]; n > 0 {
				next = color.RGBA{
					uint8((s[0] + n/2) / n),
					uint8((s[1] + n/2) / n),
					uint8((s[2] + n/2) / n),
					uint8((s[3] + n/2) / n),
				}
			} else {
				far := -1
				for i := range colors {
					if dists[i] > 0 && (far < 0 || dists[i] > dists[far]) {
						far = i
					}
				}
				if far < 0 {
					continue
				}
				next = colors[far].c
				dists[far] = 0
			}
			if next != centers[j] {
				centers[j] = next
				changed = true
			}
		}
		if !changed {
			break
		}
	}

	var cost int64
	for i, w := range colors {
		var d int
		assign[i], d = nearest(w.c, centers)
		cost += int64(d) * int64(w.n)
	}
	return centers, assign, cost
}

// Quantize limits a reduced volume and palette to at most budget entries,
// including the empty entry. Median cut and farthest-color seeds are both
// refined against the weighted colors and whichever fits better is used. The
// result is again dense and ordered by first use. If the palette already fits
// the inputs are returned as is.
func Quantize(v *vox.Volume, p Palette, budget int) (*vox.Volume, Palette, error) {
	if budget < 2 {
		return nil, nil, errBudget
	}
	if budget > MaxColors {
		budget = MaxColors
	}
	if len(p) <= budget {
		return v, p, nil
	}

	k := budget - 1
	colors := weights(v, p)

	var centers []color.RGBA
	var assign []int
	var best int64 = -1
	for _, seeds := range [][]color.RGBA{
		medianCutSeeds(v, p, k),
		farthestSeeds(colors, k),
	} {
		if len(seeds) == 0 {
			continue
		}
		c, a, cost := refine(colors, seeds)
		if best < 0 || cost < best {
			centers, assign, best = c, a, cost
		}
	}

	// Raw value j+1 refers to center j so Reduce can compact the result,
	// dropping any center nothing maps to
	var raw vox.RawPalette
	copy(raw[:], centers)

	remap := make([]byte, len(p))
	for i, w := range colors {
		remap[w.index] = byte(assign[i] + 1)
	}

	mapped := v.Clone()
	for i, c := range mapped.Voxels {
		mapped.Voxels[i] = remap[c]
	}

	return Reduce(mapped, &raw)
}

package mrc

// PixelBBox is an axis-aligned bounding box in bitmap pixel coordinates
// (y-down), half-open on the max edges (MaxX/MaxY are exclusive).
type PixelBBox struct {
	MinX, MinY, MaxX, MaxY int
}

func (b PixelBBox) width() int  { return b.MaxX - b.MinX }
func (b PixelBBox) height() int { return b.MaxY - b.MinY }
func (b PixelBBox) area() int   { return b.width() * b.height() }

// within reports whether b and o are no farther apart than dist pixels
// (measured between the nearest edges, 0 if they already overlap).
func (b PixelBBox) within(o PixelBBox, dist int) bool {
	dx := 0
	if b.MaxX < o.MinX {
		dx = o.MinX - b.MaxX
	} else if o.MaxX < b.MinX {
		dx = b.MinX - o.MaxX
	}
	dy := 0
	if b.MaxY < o.MinY {
		dy = o.MinY - b.MaxY
	} else if o.MaxY < b.MinY {
		dy = b.MinY - o.MaxY
	}
	return dx <= dist && dy <= dist
}

func (b PixelBBox) union(o PixelBBox) PixelBBox {
	return PixelBBox{
		MinX: min(b.MinX, o.MinX), MinY: min(b.MinY, o.MinY),
		MaxX: max(b.MaxX, o.MaxX), MaxY: max(b.MaxY, o.MaxY),
	}
}

// SegmentTextRegions finds the bounding boxes of 8-connected components
// in mask, drops components smaller than minArea (boxes below a 4x4 px
// minimum are filtered), and repeatedly merges boxes within
// mergeDistance pixels of each other until no further merge applies.
func SegmentTextRegions(mask *Bitmap, minArea, mergeDistance int) []PixelBBox {
	labels := make([]int, mask.Width*mask.Height)
	nextLabel := 1
	var boxes []PixelBBox

	idx := func(x, y int) int { return y*mask.Width + x }

	var stack [][2]int
	for y := 0; y < mask.Height; y++ {
		for x := 0; x < mask.Width; x++ {
			if mask.Get(x, y) == 0 || labels[idx(x, y)] != 0 {
				continue
			}
			label := nextLabel
			nextLabel++
			bbox := PixelBBox{MinX: x, MinY: y, MaxX: x + 1, MaxY: y + 1}
			stack = append(stack, [2]int{x, y})
			labels[idx(x, y)] = label

			for len(stack) > 0 {
				p := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				px, py := p[0], p[1]
				bbox.MinX, bbox.MaxX = min(bbox.MinX, px), max(bbox.MaxX, px+1)
				bbox.MinY, bbox.MaxY = min(bbox.MinY, py), max(bbox.MaxY, py+1)

				for dy := -1; dy <= 1; dy++ {
					for dx := -1; dx <= 1; dx++ {
						if dx == 0 && dy == 0 {
							continue
						}
						nx, ny := px+dx, py+dy
						if nx < 0 || ny < 0 || nx >= mask.Width || ny >= mask.Height {
							continue
						}
						if mask.Get(nx, ny) == 0 || labels[idx(nx, ny)] != 0 {
							continue
						}
						labels[idx(nx, ny)] = label
						stack = append(stack, [2]int{nx, ny})
					}
				}
			}

			if bbox.area() >= minArea {
				boxes = append(boxes, bbox)
			}
		}
	}

	return mergeBoxes(boxes, mergeDistance)
}

// mergeBoxes repeatedly unions any two boxes within mergeDistance pixels
// of each other until a pass finds nothing left to merge.
func mergeBoxes(boxes []PixelBBox, mergeDistance int) []PixelBBox {
	changed := true
	for changed {
		changed = false
		for i := 0; i < len(boxes); i++ {
			for j := i + 1; j < len(boxes); j++ {
				if boxes[i].within(boxes[j], mergeDistance) {
					boxes[i] = boxes[i].union(boxes[j])
					boxes = append(boxes[:j], boxes[j+1:]...)
					changed = true
					break
				}
			}
			if changed {
				break
			}
		}
	}
	return boxes
}

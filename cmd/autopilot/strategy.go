package main

import "github.com/wricardo/snake-api/game/engine"

var directions = []engine.Direction{engine.Up, engine.Right, engine.Down, engine.Left}

type point struct{ x, y int }

func (p point) step(d engine.Direction) point {
	dx, dy := d.Delta()
	return point{p.x + dx, p.y + dy}
}

// board is a read-only view of a rendered grid.
type board struct {
	view *engine.View
}

func (b board) inBounds(p point) bool {
	return p.x >= 0 && p.y >= 0 && p.x < b.view.Width && p.y < b.view.Height
}

func (b board) at(p point) engine.CellTag {
	return b.view.Cells[p.y][p.x]
}

func (b board) free(p point) bool {
	if !b.inBounds(p) {
		return false
	}
	tag := b.at(p)
	return tag == engine.CellEmpty || tag == engine.CellFood
}

func (b board) find(tag engine.CellTag) (point, bool) {
	for y, row := range b.view.Cells {
		for x, cell := range row {
			if cell == tag {
				return point{x, y}, true
			}
		}
	}
	return point{}, false
}

// ChooseDirection picks the first step of a shortest path to the food. When
// the food is unreachable it turns towards the largest open region, and when
// every neighbour is blocked it keeps the current heading.
func ChooseDirection(view *engine.View) engine.Direction {
	b := board{view: view}
	head, ok := b.find(engine.CellHead)
	if !ok {
		return view.Direction
	}

	if food, ok := b.find(engine.CellFood); ok {
		if d, ok := b.firstStep(head, food, view.Direction); ok {
			return d
		}
	}

	best, bestArea := view.Direction, -1
	for _, d := range candidates(view.Direction) {
		next := head.step(d)
		if !b.free(next) {
			continue
		}
		if area := b.reachable(next); area > bestArea {
			best, bestArea = d, area
		}
	}
	return best
}

// candidates lists every direction except the reverse of heading.
func candidates(heading engine.Direction) []engine.Direction {
	out := make([]engine.Direction, 0, len(directions))
	for _, d := range directions {
		if heading != "" && d == heading.Opposite() {
			continue
		}
		out = append(out, d)
	}
	return out
}

func (b board) firstStep(from, to point, heading engine.Direction) (engine.Direction, bool) {
	type entry struct {
		at    point
		first engine.Direction
	}

	seen := map[point]bool{from: true}
	var queue []entry
	for _, d := range candidates(heading) {
		next := from.step(d)
		if b.free(next) && !seen[next] {
			seen[next] = true
			queue = append(queue, entry{next, d})
		}
	}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur.at == to {
			return cur.first, true
		}
		for _, d := range directions {
			next := cur.at.step(d)
			if b.free(next) && !seen[next] {
				seen[next] = true
				queue = append(queue, entry{next, cur.first})
			}
		}
	}
	return "", false
}

// reachable counts the free cells connected to start.
func (b board) reachable(start point) int {
	seen := map[point]bool{start: true}
	stack := []point{start}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, d := range directions {
			next := cur.step(d)
			if b.free(next) && !seen[next] {
				seen[next] = true
				stack = append(stack, next)
			}
		}
	}
	return len(seen)
}

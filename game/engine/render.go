package engine

// Render projects the state into a per-cell view. It never mutates.
func (e *Engine) Render() *View {
	gs := e.state
	cells := make([][]CellTag, gs.Height)
	for y := range cells {
		row := make([]CellTag, gs.Width)
		for x := range row {
			row[x] = CellEmpty
		}
		cells[y] = row
	}

	if gs.InBounds(gs.Food) {
		cells[gs.Food.Y][gs.Food.X] = CellFood
	}
	for i, c := range gs.Snake {
		if !gs.InBounds(c) {
			continue
		}
		if i == 0 {
			cells[c.Y][c.X] = CellHead
		} else {
			cells[c.Y][c.X] = CellBody
		}
	}

	return &View{
		Width:          gs.Width,
		Height:         gs.Height,
		Cells:          cells,
		Score:          gs.Score,
		Status:         gs.Status,
		Direction:      gs.Direction,
		Length:         len(gs.Snake),
		TickIntervalMs: gs.TickIntervalMs,
	}
}

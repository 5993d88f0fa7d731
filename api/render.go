package api

import (
	"bytes"
	"html/template"

	"github.com/wricardo/snake-api/game/engine"
)

var cellColors = map[engine.CellTag]template.CSS{
	engine.CellHead:  "#4ec9b0",
	engine.CellBody:  "#3aa18c",
	engine.CellFood:  "#f5ab3cff",
	engine.CellEmpty: "#2d2d2d",
}

// boardTemplate renders on one line so it fits a single SSE data field.
var boardTemplate = template.Must(template.New("board").Funcs(template.FuncMap{
	"color": func(tag engine.CellTag) template.CSS {
		if c, ok := cellColors[tag]; ok {
			return c
		}
		return cellColors[engine.CellEmpty]
	},
}).Parse(
	`<div style="display: grid; grid-template-columns: repeat({{.Width}}, 20px); gap: 1px; background: #1e1e1e; padding: 10px; border-radius: 8px;">` +
		`{{range .Cells}}{{range .}}<div style="width: 20px; height: 20px; background: {{color .}}; border-radius: 2px;"></div>{{end}}{{end}}` +
		`</div>` +
		`<p style="color: #4ec9b0; font-size: 1.5em; margin-top: 10px;">Score: {{.Score}}</p>` +
		`{{if eq .Status "over"}}<p style="color: #ff6b6b; font-size: 1.5em;">GAME OVER!</p>` +
		`{{else if eq .Status "not_started"}}<p style="color: #4ec9b0; font-size: 1.2em;">Press START to begin!</p>` +
		`{{else if eq .Status "paused"}}<p style="color: #4ec9b0; font-size: 1.2em;">Paused</p>{{end}}`,
))

// RenderHTML draws a view as the board fragment served by /render and
// /game-stream.
func RenderHTML(view *engine.View) (string, error) {
	var buf bytes.Buffer
	if err := boardTemplate.Execute(&buf, view); err != nil {
		return "", err
	}
	return buf.String(), nil
}

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/wricardo/snake-api/game/config"
	"github.com/wricardo/snake-api/game/engine"
	"github.com/wricardo/snake-api/game/session"
)

func validateAction(ctx context.Context, cmd *cli.Command) error {
	opts := readOptions(cmd)
	return validateConfigs(cmd.Root().Writer, opts.ConfigDir)
}

// validateConfigs reports every mode file in dir and fails if any is invalid.
func validateConfigs(w io.Writer, dir string) error {
	results, err := config.ValidateDir(dir)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		return fmt.Errorf("no game modes found in %s", dir)
	}

	names := make([]string, 0, len(results))
	for name := range results {
		names = append(names, name)
	}
	sort.Strings(names)

	invalid := 0
	for _, name := range names {
		if err := results[name]; err != nil {
			invalid++
			fmt.Fprintf(w, "FAIL %s: %v\n", name, err)
			continue
		}
		fmt.Fprintf(w, "ok   %s\n", name)
	}

	if invalid > 0 {
		return fmt.Errorf("%d of %d game modes invalid", invalid, len(names))
	}
	return nil
}

func inspectAction(ctx context.Context, cmd *cli.Command) error {
	switch cmd.Args().Len() {
	case 0:
		return listStoredSessions(ctx, cmd.Root().Writer, readOptions(cmd))
	case 1:
		return inspectSession(ctx, cmd.Root().Writer, readOptions(cmd), cmd.Args().First())
	}
	return fmt.Errorf("usage: %s inspect [session-id]", cmd.Root().Name)
}

// listStoredSessions prints one stored session ID per line.
func listStoredSessions(ctx context.Context, w io.Writer, opts options) error {
	store, closeStore, err := openStore(opts)
	if err != nil {
		return err
	}
	defer closeStore()

	lister, ok := store.(session.SnapshotLister)
	if !ok {
		return fmt.Errorf("store %q cannot list sessions", storeName(opts))
	}

	listCtx, cancel := context.WithTimeout(ctx, opts.StoreTimeout)
	defer cancel()
	ids, err := lister.ListAll(listCtx)
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}
	for _, id := range ids {
		fmt.Fprintln(w, id)
	}
	return nil
}

// inspectSession prints the stored snapshot for id and the board it restores
// to under the configured mode.
func inspectSession(ctx context.Context, w io.Writer, opts options, id string) error {
	if err := session.ValidateID(id); err != nil {
		return err
	}

	store, closeStore, err := openStore(opts)
	if err != nil {
		return err
	}
	defer closeStore()
	if store == nil {
		return fmt.Errorf("no snapshot store configured")
	}

	getCtx, cancel := context.WithTimeout(ctx, opts.StoreTimeout)
	defer cancel()
	snap, err := store.Get(getCtx, id)
	if errors.Is(err, session.ErrSnapshotNotFound) {
		return fmt.Errorf("session %s: %w", id, err)
	}
	if err != nil {
		return fmt.Errorf("failed to read snapshot: %w", err)
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "%s\n", data)

	configs, err := loadConfigs(opts)
	if err != nil {
		return err
	}
	gameConfig, err := configs.LoadConfig(opts.Mode)
	if err != nil {
		return fmt.Errorf("game mode %q: %w", opts.Mode, err)
	}

	eng, err := engine.NewEngineFromSnapshot(gameConfig, snap)
	if err != nil {
		fmt.Fprintf(w, "\nsnapshot does not fit mode %s: %v\n", gameConfig.Name, err)
		return nil
	}
	fmt.Fprintf(w, "\n%s", drawBoard(eng.Render()))
	return nil
}

var boardChars = map[engine.CellTag]byte{
	engine.CellEmpty: '.',
	engine.CellHead:  'H',
	engine.CellBody:  'o',
	engine.CellFood:  '*',
}

func drawBoard(view *engine.View) string {
	var b strings.Builder
	fmt.Fprintf(&b, "status=%s score=%d length=%d heading=%s\n", view.Status, view.Score, view.Length, view.Direction)
	for _, row := range view.Cells {
		for _, cell := range row {
			b.WriteByte(boardChars[cell])
		}
		b.WriteByte('\n')
	}
	return b.String()
}

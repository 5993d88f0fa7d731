// Command autopilot plays the snake game through the REST API. Every poll it
// fetches the board, steers along a shortest path to the food and stops when
// the game ends.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/wricardo/snake-api/game/engine"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := &cli.Command{
		Name:  "autopilot",
		Usage: "play snake through the REST API",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "url", Value: "http://localhost:8080", Usage: "API base URL", Sources: cli.EnvVars("SNAKE_API_URL")},
			&cli.StringFlag{Name: "session", Usage: "session ID (random when empty)"},
			&cli.DurationFlag{Name: "poll", Value: 50 * time.Millisecond, Usage: "board poll interval"},
			&cli.DurationFlag{Name: "timeout", Value: 5 * time.Minute, Usage: "give up after this long"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			logger, err := zap.NewDevelopment()
			if err != nil {
				return err
			}
			defer logger.Sync()

			sessionID := cmd.String("session")
			if sessionID == "" {
				sessionID = "autopilot-" + uuid.NewString()
			}

			ctx, cancel := context.WithTimeout(ctx, cmd.Duration("timeout"))
			defer cancel()

			view, err := Play(ctx, NewClient(cmd.String("url"), sessionID), cmd.Duration("poll"), logger.With(zap.String("session_id", sessionID)))
			if err != nil {
				return err
			}
			fmt.Printf("Final score: %d (length %d)\n", view.Score, view.Length)
			return nil
		},
	}

	if err := cmd.Run(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "autopilot: %v\n", err)
		os.Exit(1)
	}
}

// Play starts a game and steers it until it is over or ctx ends. It returns
// the last board seen.
func Play(ctx context.Context, client *Client, poll time.Duration, logger *zap.Logger) (*engine.View, error) {
	if err := client.Start(ctx); err != nil {
		return nil, err
	}
	logger.Info("game started")

	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	var last *engine.View
	score := -1
	for {
		view, err := client.View(ctx)
		if err != nil {
			if last != nil && ctx.Err() != nil {
				return last, nil
			}
			return last, err
		}
		last = view

		if view.Score != score {
			score = view.Score
			logger.Debug("score", zap.Int("score", score), zap.Int("length", view.Length))
		}
		if view.Status == engine.StatusOver {
			logger.Info("game over", zap.Int("score", view.Score))
			return view, nil
		}

		if d := ChooseDirection(view); d != view.Direction {
			if err := client.Move(ctx, d); err != nil {
				logger.Warn("move rejected", zap.String("direction", string(d)), zap.Error(err))
			}
		}

		select {
		case <-ctx.Done():
			return last, nil
		case <-ticker.C:
		}
	}
}

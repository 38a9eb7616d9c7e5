// collabctl — консольный клиент для отладки realtime-сервера: смотреть
// presence и события комнаты без браузера, слать тестовые события.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mockpages/collab-service/pkg/client"
	"github.com/mockpages/collab-service/pkg/logger"

	"github.com/urfave/cli/v3"
)

func main() {
	app := &cli.Command{
		Name:  "collabctl",
		Usage: "Debug client for the mock-pages collaboration server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "url",
				Usage: "WebSocket endpoint",
				Value: "ws://localhost:3001/ws",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug logging",
				Value: false,
			},
		},
		Commands: []*cli.Command{
			tailCommand(),
			sendCommand(),
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func tailCommand() *cli.Command {
	return &cli.Command{
		Name:      "tail",
		Usage:     "Join a page room and print incoming events as NDJSON",
		ArgsUsage: "<pageId>",
		Action: func(ctx context.Context, c *cli.Command) error {
			pageID := c.Args().First()
			if pageID == "" {
				return fmt.Errorf("pageId argument is required")
			}
			initLogging(c)

			enc := json.NewEncoder(os.Stdout)
			sess := client.New(client.Options{
				URL: c.String("url"),
				OnEvent: func(ev client.Event) {
					_ = enc.Encode(describe(ev))
				},
			})
			if err := sess.Connect(ctx, pageID); err != nil {
				return err
			}
			defer func() { _ = sess.Close() }()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-sigCh:
				return nil
			}
		},
	}
}

func sendCommand() *cli.Command {
	return &cli.Command{
		Name:      "send",
		Usage:     "Emit a test event into a page room",
		ArgsUsage: "<pageId>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "blocks",
				Usage: "JSON array of blocks to send as update-blocks",
			},
			&cli.StringFlag{
				Name:  "order",
				Usage: "JSON array of blocks to send as order-changed",
			},
			&cli.Float64Flag{
				Name:  "x",
				Usage: "Cursor x (sends mouse-move together with -y)",
			},
			&cli.Float64Flag{
				Name:  "y",
				Usage: "Cursor y",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			pageID := c.Args().First()
			if pageID == "" {
				return fmt.Errorf("pageId argument is required")
			}
			initLogging(c)

			sess := client.New(client.Options{URL: c.String("url")})
			if err := sess.Connect(ctx, pageID); err != nil {
				return err
			}
			defer func() { _ = sess.Close() }()

			if blocks := c.String("blocks"); blocks != "" {
				if err := sess.EmitBlockUpdate(json.RawMessage(blocks)); err != nil {
					return err
				}
			}
			if order := c.String("order"); order != "" {
				if err := sess.EmitOrderChange(json.RawMessage(order)); err != nil {
					return err
				}
			}
			if c.IsSet("x") || c.IsSet("y") {
				if err := sess.EmitCursorMove(c.Float64("x"), c.Float64("y"), 0, 0); err != nil {
					return err
				}
			}

			// даём транспорту дослать кадры перед закрытием
			time.Sleep(100 * time.Millisecond)
			return nil
		},
	}
}

func initLogging(c *cli.Command) {
	// без --debug глушим служебные логи, чтобы не мешали NDJSON-выводу
	level := slog.LevelWarn
	if c.Bool("debug") {
		level = slog.LevelDebug
	}
	logger.Init(logger.Config{
		Service: "collabctl",
		Backend: logger.BackendStd,
		Level:   level,
	})
}

func describe(ev client.Event) map[string]any {
	switch e := ev.(type) {
	case client.PresenceEvent:
		return map[string]any{"event": "room-users-updated", "count": e.View.Count, "users": e.View.Users}
	case client.BlocksEvent:
		return map[string]any{"event": "blocks-updated", "payload": json.RawMessage(e.Payload)}
	case client.OrderEvent:
		return map[string]any{"event": "order-updated", "payload": json.RawMessage(e.Payload)}
	case client.CursorEvent:
		return map[string]any{"event": "cursor-updated", "cursor": e.Cursor}
	}
	return map[string]any{"event": "unknown"}
}

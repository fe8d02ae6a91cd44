package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/websocket"

	synchub "platehub/internal/sync"
	"platehub/pkg/utils"
)

func main() {
	addr := flag.String("addr", "127.0.0.1:7070", "TCP sync server address")
	wsURL := flag.String("ws", "", "websocket URL (ws://host:8080/ws); overrides -addr")
	raw := flag.Bool("raw", false, "print raw JSON lines")
	flag.Parse()

	log := utils.NewLogger(utils.LogConfig{Level: "info"}, os.Stderr).With("component", "sync-client")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	for ctx.Err() == nil {
		var err error
		if *wsURL != "" {
			err = runWS(ctx, *wsURL, *raw, log)
		} else {
			err = runTCP(ctx, *addr, *raw, log)
		}
		if err != nil && ctx.Err() == nil {
			log.Warn("disconnected", "error", err)
		}
		select {
		case <-ctx.Done():
		case <-time.After(time.Second): // reconnect
		}
	}
}

func runTCP(ctx context.Context, addr string, raw bool, log *slog.Logger) error {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	defer conn.Close()
	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()

	log.Info("connected", "addr", addr)
	sc := bufio.NewScanner(conn)
	for sc.Scan() {
		printLine(os.Stdout, sc.Bytes(), raw)
	}
	if err := sc.Err(); err != nil {
		return err
	}
	return io.EOF
}

func runWS(ctx context.Context, url string, raw bool, log *slog.Logger) error {
	ws, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", url, err)
	}
	defer ws.Close()
	go func() {
		<-ctx.Done()
		_ = ws.Close()
	}()

	log.Info("connected", "url", url)
	for {
		_, msg, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				return io.EOF
			}
			return err
		}
		printLine(os.Stdout, msg, raw)
	}
}

func printLine(w io.Writer, line []byte, raw bool) {
	if raw {
		fmt.Fprintln(w, string(line))
		return
	}
	fmt.Fprintln(w, describe(line))
}

// describe renders one feed line for humans; unknown lines pass through.
func describe(line []byte) string {
	var ev synchub.CollectionEvent
	if err := json.Unmarshal(line, &ev); err != nil || ev.Type == "" {
		return string(line)
	}

	at := ev.At.Local().Format(time.TimeOnly)
	switch ev.Type {
	case synchub.EventGameCreated:
		return fmt.Sprintf("%s player %s created game %s", at, ev.PlayerID, ev.GameID)
	case synchub.EventGameDeleted:
		return fmt.Sprintf("%s player %s deleted game %s", at, ev.PlayerID, ev.GameID)
	case synchub.EventPlateCollected:
		s := fmt.Sprintf("%s player %s %s %s %s", at, ev.PlayerID, ev.Outcome, ev.Region, ev.Title)
		if ev.Replaced != "" {
			s += fmt.Sprintf(" (replaced %s)", ev.Replaced)
		}
		if ev.Stats != nil {
			s += fmt.Sprintf(" [%d regions, score %d]", ev.Stats.DistinctRegions, ev.Stats.Score)
		}
		return s
	case synchub.EventPlateRemoved:
		return fmt.Sprintf("%s player %s removed %s %s", at, ev.PlayerID, ev.Region, ev.Title)
	default:
		return string(line)
	}
}

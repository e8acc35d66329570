// ABOUTME: Minimal fake chat backend for manual testing — serves the websocket frame protocol.
// ABOUTME: Usage: fake-backend [-addr localhost:8089] [-token secret] [-delay 50ms]
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/gorilla/websocket"

	"github.com/2389/coven-chat/transport"
)

var (
	inbound  = color.New(color.FgCyan)
	outbound = color.New(color.FgGreen)
	warn     = color.New(color.FgYellow)
)

func main() {
	addr := flag.String("addr", "localhost:8089", "listen address")
	token := flag.String("token", "", "required bearer token (empty disables auth)")
	delay := flag.Duration("delay", 50*time.Millisecond, "delay between streamed deltas")
	flag.Parse()

	if err := run(*addr, *token, *delay); err != nil {
		log.Fatal(err)
	}
}

func run(addr, token string, delay time.Duration) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	upgrader := websocket.Upgrader{}
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if token != "" && r.Header.Get("Authorization") != "Bearer "+token {
			warn.Fprintf(os.Stderr, "rejected connection from %s: bad token\n", r.RemoteAddr)
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("upgrade error: %v", err)
			return
		}
		log.Printf("client connected: %s", r.RemoteAddr)
		serve(ws, delay)
	})

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		<-ctx.Done()
		shutdownCtx, stop := context.WithTimeout(context.Background(), 2*time.Second)
		defer stop()
		_ = srv.Shutdown(shutdownCtx)
	}()

	fmt.Fprintf(os.Stderr, "fake backend listening on ws://%s\n", addr)
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// serve handles one client connection until it drops. Each send frame gets
// an echoed reply streamed word by word; cancel frames stop the stream.
func serve(ws *websocket.Conn, delay time.Duration) {
	defer ws.Close()

	var mu sync.Mutex // guards writes and the cancelled set
	cancelled := make(map[string]bool)

	write := func(f transport.Frame) error {
		data, err := json.Marshal(f)
		if err != nil {
			return err
		}
		mu.Lock()
		defer mu.Unlock()
		return ws.WriteMessage(websocket.TextMessage, data)
	}

	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			log.Printf("client gone: %v", err)
			return
		}

		var f transport.Frame
		if err := json.Unmarshal(data, &f); err != nil {
			warn.Fprintf(os.Stderr, "malformed frame: %v\n", err)
			continue
		}

		switch f.Kind {
		case transport.KindSend:
			inbound.Fprintf(os.Stderr, "<- send [%s] %s: %s\n", f.RequestID, f.ChannelID, f.Data)
			go stream(f, delay, write, func() bool {
				mu.Lock()
				defer mu.Unlock()
				return cancelled[f.RequestID]
			})
		case transport.KindCancel:
			inbound.Fprintf(os.Stderr, "<- cancel [%s]\n", f.RequestID)
			mu.Lock()
			cancelled[f.RequestID] = true
			mu.Unlock()
		default:
			warn.Fprintf(os.Stderr, "unexpected frame kind %q\n", f.Kind)
		}
	}
}

func stream(req transport.Frame, delay time.Duration, write func(transport.Frame) error, isCancelled func() bool) {
	reply := echoReply(req.Data)
	words := strings.SplitAfter(reply, " ")

	for _, word := range words {
		if isCancelled() {
			outbound.Fprintf(os.Stderr, "-- stream [%s] cancelled\n", req.RequestID)
			return
		}
		if err := write(transport.Frame{
			RequestID: req.RequestID,
			ChannelID: req.ChannelID,
			Kind:      transport.KindDelta,
			Data:      word,
		}); err != nil {
			log.Printf("send delta error: %v", err)
			return
		}
		time.Sleep(delay)
	}

	if err := write(transport.Frame{
		RequestID: req.RequestID,
		ChannelID: req.ChannelID,
		Kind:      transport.KindComplete,
	}); err != nil {
		log.Printf("send complete error: %v", err)
		return
	}
	outbound.Fprintf(os.Stderr, "-> complete [%s]\n", req.RequestID)
}

func echoReply(input string) string {
	lower := strings.ToLower(input)
	if strings.Contains(lower, "error") {
		return "Simulating failures is a separate flag away, but here is text instead."
	}
	if strings.Contains(lower, "markdown") || strings.Contains(lower, "list") {
		return "Here is a **markdown** response:\n\n- First item\n- Second item with `code`\n- Third item\n\n> This is a blockquote.\n"
	}
	return fmt.Sprintf("Echo: **%s**\n\nI received your message and am responding with some *formatted* text.", input)
}

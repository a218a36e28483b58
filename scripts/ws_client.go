// Package main runs a demo WebSocket client for simulation events.
package main

import (
	"bytes"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/gorilla/websocket"
)

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	base := fmt.Sprintf("http://localhost:%s", port)

	// Connect to the live stream first so the tick below is observed.
	u := url.URL{Scheme: "ws", Host: "localhost:" + port, Path: "/v1/stream"}
	c, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatal("dial:", err)
	}
	defer func() { _ = c.Close() }()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			_, data, err := c.ReadMessage()
			if err != nil {
				log.Printf("read: %v", err)
				return
			}
			log.Printf("WS <- %s", data)
		}
	}()

	// Advance the simulation a few seconds to trigger snapshots.
	time.Sleep(500 * time.Millisecond)
	body := []byte(`{"deltaMs":1000,"ticks":5}`)
	req, _ := http.NewRequest(http.MethodPost, base+"/v1/sim/tick", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Fatal(err)
	}
	_ = resp.Body.Close()

	select {
	case <-time.After(3 * time.Second):
	case <-done:
	}
}

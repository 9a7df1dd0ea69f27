// Command eventgen serves a synthetic retail sensor feed as
// newline-delimited JSON over TCP, for local runs of the detection service.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"net"
	"os"
	"sync"
	"time"
)

type options struct {
	addr        string
	rate        int
	anomalyRate float64
	seed        int64
}

func main() {
	opts := parseFlags()

	listener, err := net.Listen("tcp", opts.addr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to listen on %s: %v\n", opts.addr, err)
		os.Exit(1)
	}
	fmt.Printf("Serving sensor feed on %s (%d batches/s, anomaly rate %.2f)\n",
		opts.addr, opts.rate, opts.anomalyRate)

	srv := &server{
		gen:   newGenerator(opts.seed, opts.anomalyRate),
		rate:  opts.rate,
		conns: make(map[net.Conn]bool),
	}
	go srv.produce()

	for {
		conn, err := listener.Accept()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: accept failed: %v\n", err)
			continue
		}
		fmt.Printf("Client connected: %s\n", conn.RemoteAddr())
		srv.add(conn)
	}
}

func parseFlags() *options {
	opts := &options{}
	flag.StringVar(&opts.addr, "addr", "127.0.0.1:8765", "Listen address")
	flag.IntVar(&opts.rate, "rate", 2, "Sensor batches per second")
	flag.Float64Var(&opts.anomalyRate, "anomaly-rate", 0.15, "Share of batches with injected anomalies")
	flag.Int64Var(&opts.seed, "seed", time.Now().UnixNano(), "Random seed")
	flag.Parse()
	return opts
}

// server fans generated feed lines out to every connected client.
type server struct {
	gen   *generator
	rate  int
	mu    sync.Mutex
	conns map[net.Conn]bool
}

func (s *server) add(conn net.Conn) {
	s.mu.Lock()
	s.conns[conn] = true
	s.mu.Unlock()
}

func (s *server) produce() {
	interval := time.Second / time.Duration(s.rate)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for range ticker.C {
		for _, env := range s.gen.nextBatch() {
			line, err := json.Marshal(env)
			if err != nil {
				continue
			}
			s.broadcast(append(line, '\n'))
		}
	}
}

func (s *server) broadcast(line []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for conn := range s.conns {
		conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if _, err := conn.Write(line); err != nil {
			fmt.Printf("Client disconnected: %s\n", conn.RemoteAddr())
			conn.Close()
			delete(s.conns, conn)
		}
	}
}

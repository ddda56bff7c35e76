package monitor

import (
	"sync"

	"github.com/user/blesniffer/logger"
	"github.com/user/blesniffer/sniffer"
)

// broadcastQueue bounds how many lines can wait for the fan-out loop
// before Report starts dropping.
const broadcastQueue = 64

// Hub fans the capture stream out to every connected feed client. It
// implements the consumer's Reporter: each reported record becomes one
// canonical line pushed to all clients.
//
// Report never blocks. When the fan-out loop or a client cannot keep up
// the line is dropped for that destination and counted; the capture
// pipeline must not inherit a slow diagnostic client's backpressure.
type Hub struct {
	register   chan *client
	unregister chan *client
	broadcast  chan []byte

	mu          sync.Mutex
	running     bool
	stopChan    chan struct{}
	doneChan    chan struct{}
	clientCount int
	dropped     uint64
}

func NewHub() *Hub {
	h := &Hub{
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan []byte, broadcastQueue),
	}
	// Until Start, a closed doneChan lets clients and reporters bail out
	// instead of blocking on a loop that is not running
	h.doneChan = make(chan struct{})
	close(h.doneChan)
	return h
}

// Report queues one record's canonical line for broadcast. It always
// returns nil: an overfull queue drops the line and counts it instead of
// failing the consumer.
func (h *Hub) Report(rec *sniffer.CaptureRecord) error {
	select {
	case h.broadcast <- []byte(rec.SerialLine()):
	default:
		h.mu.Lock()
		h.dropped++
		h.mu.Unlock()
	}
	return nil
}

// Dropped returns how many lines were discarded because the broadcast
// queue was full.
func (h *Hub) Dropped() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.dropped
}

// ClientCount returns the number of connected feed clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.clientCount
}

// Start launches the fan-out loop. No-op when already running.
func (h *Hub) Start() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.running {
		return
	}
	h.running = true
	h.stopChan = make(chan struct{})
	h.doneChan = make(chan struct{})

	go h.run(h.stopChan, h.doneChan)
}

// Stop disconnects every client and halts the fan-out loop.
func (h *Hub) Stop() {
	h.mu.Lock()
	if !h.running {
		h.mu.Unlock()
		return
	}
	h.running = false
	stopChan := h.stopChan
	doneChan := h.doneChan
	h.mu.Unlock()

	close(stopChan)
	<-doneChan
}

// add hands a new client to the loop, or refuses it when the hub is not
// running.
func (h *Hub) add(c *client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done():
		return false
	}
}

// remove detaches a client; a no-op when the loop already exited (Stop
// closes every client itself).
func (h *Hub) remove(c *client) {
	select {
	case h.unregister <- c:
	case <-h.done():
	}
}

func (h *Hub) done() <-chan struct{} {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.doneChan
}

func (h *Hub) setClientCount(n int) {
	h.mu.Lock()
	h.clientCount = n
	h.mu.Unlock()
}

// run owns the client set; nothing else touches it.
func (h *Hub) run(stopChan <-chan struct{}, doneChan chan<- struct{}) {
	defer close(doneChan)

	clients := make(map[*client]bool)
	defer func() {
		for c := range clients {
			close(c.send)
			c.conn.Close()
		}
		h.setClientCount(0)
	}()

	for {
		select {
		case <-stopChan:
			return

		case c := <-h.register:
			clients[c] = true
			h.setClientCount(len(clients))
			logger.Debug("MONITOR", "Feed client connected: %s", c.conn.RemoteAddr())

		case c := <-h.unregister:
			if clients[c] {
				delete(clients, c)
				close(c.send)
				h.setClientCount(len(clients))
				logger.Debug("MONITOR", "Feed client disconnected: %s", c.conn.RemoteAddr())
			}

		case msg := <-h.broadcast:
			for c := range clients {
				select {
				case c.send <- msg:
				default:
					// Slow client: cut it loose rather than stall the feed
					delete(clients, c)
					close(c.send)
					h.setClientCount(len(clients))
					logger.Warn("MONITOR", "Dropping slow feed client: %s", c.conn.RemoteAddr())
				}
			}
		}
	}
}

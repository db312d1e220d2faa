package services

import (
	"sync"
	"sync/atomic"
	"time"
)

const maxBufferedCommands = 100

// sequence numbers every event a room hands to its clients.
type sequence struct {
	n atomic.Uint64
}

func (s *sequence) next() uint64 { return s.n.Add(1) }

func (s *sequence) current() uint64 { return s.n.Load() }

// PlayerCommand is an instruction for the browser-side video widget.
type PlayerCommand struct {
	Seq     uint64    `json:"seq"`
	Action  string    `json:"action"`
	VideoID string    `json:"video_id,omitempty"`
	At      time.Time `json:"at"`
}

const (
	CommandLoad  = "load"
	CommandPlay  = "play"
	CommandPause = "pause"
	CommandStop  = "stop"
)

// RemotePlayer buffers player commands until the client polls for them.
type RemotePlayer struct {
	mu       sync.Mutex
	seq      *sequence
	commands []PlayerCommand
}

func newRemotePlayer(seq *sequence) *RemotePlayer {
	return &RemotePlayer{seq: seq}
}

func (p *RemotePlayer) LoadAndPlay(videoID string) { p.push(CommandLoad, videoID) }
func (p *RemotePlayer) Play()                      { p.push(CommandPlay, "") }
func (p *RemotePlayer) Pause()                     { p.push(CommandPause, "") }
func (p *RemotePlayer) Stop()                      { p.push(CommandStop, "") }

func (p *RemotePlayer) push(action, videoID string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.commands = append(p.commands, PlayerCommand{
		Seq:     p.seq.next(),
		Action:  action,
		VideoID: videoID,
		At:      time.Now(),
	})
	if over := len(p.commands) - maxBufferedCommands; over > 0 {
		p.commands = append(p.commands[:0:0], p.commands[over:]...)
	}
}

// Since returns the buffered commands with a sequence number above seq.
func (p *RemotePlayer) Since(seq uint64) []PlayerCommand {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sinceLocked(seq)
}

func (p *RemotePlayer) sinceLocked(seq uint64) []PlayerCommand {
	out := []PlayerCommand{}
	for _, c := range p.commands {
		if c.Seq > seq {
			out = append(out, c)
		}
	}
	return out
}

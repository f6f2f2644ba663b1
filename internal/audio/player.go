package audio

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/effects"
	"github.com/faiface/beep/speaker"
	"github.com/jscyril/audio_tombola/api"
	playerrors "github.com/jscyril/audio_tombola/pkg/errors"
)

// Ensure Player implements api.Player at compile time
var _ api.Player = (*Player)(nil)

// DefaultSampleRate is the speaker rate used when none is configured
const DefaultSampleRate = 44100

// Source opens registered media for decoding
type Source interface {
	Open(ref api.MediaRef) (io.ReadSeekCloser, string, error)
}

// playback is one Play call. done fires exactly once.
type playback struct {
	ref  api.MediaRef
	done func(err error)
	once sync.Once
}

// finish reports the outcome on its own goroutine so that callers never run
// inside the speaker lock
func (p *playback) finish(err error) {
	p.once.Do(func() {
		go p.done(err)
	})
}

// Player plays registered clips through the system speaker. Commands are
// processed by a single goroutine started with Start.
type Player struct {
	source   Source
	state    *api.PlaybackState
	commands chan api.AudioCommand
	logger   *slog.Logger

	// stopped closes when the command loop exits. sendMu orders senders
	// against the final drain so no command is left unanswered.
	stopped  chan struct{}
	sendMu   sync.RWMutex
	shutdown bool

	mu         sync.RWMutex
	active     *playback
	streamer   beep.StreamSeekCloser
	volume     *effects.Volume
	sampleRate beep.SampleRate
	speakerOn  bool
}

// NewPlayer creates a player reading clips from source
func NewPlayer(source Source, sampleRate int, volume float64, logger *slog.Logger) *Player {
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	if volume < 0 || volume > 1 {
		volume = 0.5
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Player{
		source: source,
		state: &api.PlaybackState{
			Status: api.StatusStopped,
			Volume: volume,
		},
		commands:   make(chan api.AudioCommand, 10),
		stopped:    make(chan struct{}),
		logger:     logger,
		sampleRate: beep.SampleRate(sampleRate),
	}
}

// Start begins the command loop. When ctx is done the loop ends any
// playback and later Play, Stop and SetVolume calls return without
// blocking.
func (p *Player) Start(ctx context.Context) {
	go p.run(ctx)
}

// run is the main command processing loop
func (p *Player) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			p.stopPlayback("")
			p.close()
			return

		case cmd := <-p.commands:
			switch cmd.Type {
			case api.CmdPlay:
				p.startPlayback(&playback{ref: cmd.Ref, done: cmd.Done})

			case api.CmdStop:
				p.stopPlayback(cmd.Ref)

			case api.CmdVolume:
				level := cmd.Payload.(float64)
				p.mu.Lock()
				p.state.Volume = level
				if p.volume != nil {
					speaker.Lock()
					p.volume.Volume, p.volume.Silent = volumeToGain(level)
					speaker.Unlock()
				}
				p.mu.Unlock()
			}
		}
	}
}

// close releases blocked senders, refuses new commands and fails any
// playback still queued
func (p *Player) close() {
	close(p.stopped)

	p.sendMu.Lock()
	p.shutdown = true
	p.sendMu.Unlock()

	for {
		select {
		case cmd := <-p.commands:
			if cmd.Type == api.CmdPlay {
				pb := &playback{ref: cmd.Ref, done: cmd.Done}
				pb.finish(playerrors.NewPlaybackError("play", cmd.Ref, playerrors.ErrPlaybackStopped))
			}
		default:
			return
		}
	}
}

// send queues cmd for the loop. It reports false once the loop has exited.
func (p *Player) send(cmd api.AudioCommand) bool {
	p.sendMu.RLock()
	defer p.sendMu.RUnlock()

	if p.shutdown {
		return false
	}
	select {
	case p.commands <- cmd:
		return true
	case <-p.stopped:
		return false
	}
}

// startPlayback replaces any running clip with pb
func (p *Player) startPlayback(pb *playback) {
	p.stopPlayback("")

	file, name, err := p.source.Open(pb.ref)
	if err != nil {
		p.logger.Warn("open media failed", "ref", pb.ref, "error", err)
		pb.finish(err)
		return
	}

	streamer, format, err := DecodeAudio(file, name)
	if err != nil {
		file.Close()
		p.logger.Warn("decode failed", "ref", pb.ref, "file", name, "error", err)
		pb.finish(playerrors.NewPlaybackError("decode", pb.ref, err))
		return
	}

	if err := p.initSpeaker(); err != nil {
		streamer.Close()
		pb.finish(playerrors.NewPlaybackError("speaker_init", pb.ref, err))
		return
	}

	var stream beep.Streamer = streamer
	if format.SampleRate != p.sampleRate {
		stream = beep.Resample(4, format.SampleRate, p.sampleRate, streamer)
	}

	p.mu.Lock()
	gain, silent := volumeToGain(p.state.Volume)
	vol := &effects.Volume{Streamer: stream, Base: 2, Volume: gain, Silent: silent}
	p.active = pb
	p.streamer = streamer
	p.volume = vol
	p.state.Status = api.StatusPlaying
	p.state.Current = pb.ref
	p.mu.Unlock()

	// The callback runs under the speaker lock; hand off before touching p.mu
	speaker.Play(beep.Seq(vol, beep.Callback(func() {
		go p.ended(pb)
	})))
	p.logger.Debug("playback started", "ref", pb.ref, "file", name)
}

// ended handles natural completion of pb
func (p *Player) ended(pb *playback) {
	p.mu.Lock()
	if p.active == pb {
		p.releaseStream()
	}
	p.mu.Unlock()
	pb.finish(nil)
}

// stopPlayback stops the running clip if it matches ref, or any clip when
// ref is empty. A stopped clip reports ErrPlaybackStopped.
func (p *Player) stopPlayback(ref api.MediaRef) {
	p.mu.Lock()
	pb := p.active
	if pb == nil || (ref != "" && pb.ref != ref) {
		p.mu.Unlock()
		return
	}
	speaker.Clear()
	p.releaseStream()
	p.mu.Unlock()

	p.logger.Debug("playback stopped", "ref", pb.ref)
	pb.finish(playerrors.NewPlaybackError("play", pb.ref, playerrors.ErrPlaybackStopped))
}

// releaseStream closes the current stream. Caller holds p.mu.
func (p *Player) releaseStream() {
	if p.streamer != nil {
		p.streamer.Close()
		p.streamer = nil
	}
	p.volume = nil
	p.active = nil
	p.state.Status = api.StatusStopped
	p.state.Current = ""
}

// initSpeaker initializes the output device once
func (p *Player) initSpeaker() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.speakerOn {
		return nil
	}
	if err := speaker.Init(p.sampleRate, p.sampleRate.N(time.Second/10)); err != nil {
		p.logger.Error("speaker init failed", "sample_rate", int(p.sampleRate), "error", err)
		return err
	}
	p.speakerOn = true
	return nil
}

// Play queues ref for playback; done reports completion or failure
func (p *Player) Play(ref api.MediaRef, done func(err error)) {
	if done == nil {
		done = func(error) {}
	}
	if ref == "" {
		pb := &playback{done: done}
		pb.finish(playerrors.NewPlaybackError("play", ref, playerrors.ErrMediaNotFound))
		return
	}
	if !p.send(api.AudioCommand{Type: api.CmdPlay, Ref: ref, Done: done}) {
		pb := &playback{ref: ref, done: done}
		pb.finish(playerrors.NewPlaybackError("play", ref, playerrors.ErrPlaybackStopped))
	}
}

// Stop stops playback of ref if it is the running clip
func (p *Player) Stop(ref api.MediaRef) {
	p.send(api.AudioCommand{Type: api.CmdStop, Ref: ref})
}

// SetVolume sets the volume level (0.0 to 1.0)
func (p *Player) SetVolume(level float64) error {
	if level < 0 || level > 1 {
		return playerrors.ErrInvalidVolume
	}
	if !p.send(api.AudioCommand{Type: api.CmdVolume, Payload: level}) {
		return playerrors.NewPlaybackError("volume", "", playerrors.ErrPlaybackStopped)
	}
	return nil
}

// GetState returns a copy of the current playback state
func (p *Player) GetState() *api.PlaybackState {
	p.mu.RLock()
	defer p.mu.RUnlock()

	state := *p.state
	return &state
}

// volumeToGain maps 0..1 to a base-2 gain, silencing at zero
func volumeToGain(level float64) (float64, bool) {
	return level*2 - 1, level == 0
}

package api

// Player is the playback capability driven by the draw engine.
//
// Play starts playback of ref and invokes done exactly once, asynchronously,
// with nil on completion or the error that ended playback. Stop ends the
// playback of ref if it is still running.
type Player interface {
	Play(ref MediaRef, done func(err error))
	Stop(ref MediaRef)
}

// Releaser releases registered media. Release must be idempotent.
type Releaser interface {
	Release(ref MediaRef)
}

// RandomSource returns uniform integers in [0, n)
type RandomSource interface {
	IntN(n int) int
}

// PlaybackStatus represents the playback collaborator status
type PlaybackStatus int

const (
	StatusStopped PlaybackStatus = iota
	StatusPlaying
)

// PlaybackState is a snapshot of the playback collaborator
type PlaybackState struct {
	Status  PlaybackStatus
	Current MediaRef
	Volume  float64
}

// CommandType identifies commands sent to the audio loop
type CommandType int

const (
	CmdPlay CommandType = iota
	CmdStop
	CmdVolume
)

// AudioCommand is a command for the audio loop
type AudioCommand struct {
	Type    CommandType
	Ref     MediaRef
	Done    func(err error)
	Payload interface{}
}

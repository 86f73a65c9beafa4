package session

import (
	"sync"
)

// Sound is an audio cue.
type Sound string

// Sound cues.
const (
	SoundLevelUp Sound = "level_up"
	SoundXPGain  Sound = "xp_gain"
)

// Celebration is a particle effect. Its kind encodes how significant the event was.
type Celebration string

// Celebrations, from most to least significant.
const (
	CelebrationLevelUp     Celebration = "level_up"
	CelebrationAchievement Celebration = "achievement"
	CelebrationXP          Celebration = "xp"
)

// Particles returns the particle count a renderer should use for c.
func (c Celebration) Particles() int {
	switch c {
	case CelebrationLevelUp:
		return 200
	case CelebrationAchievement:
		return 120
	default:
		return 40
	}
}

// Toast kinds.
const (
	ToastWelcome     = "welcome"
	ToastXP          = "xp"
	ToastLevelUp     = "level_up"
	ToastAchievement = "achievement"
)

// Toast is a transient notification.
type Toast struct {
	Kind    string `json:"kind"`
	Title   string `json:"title"`
	Message string `json:"message,omitempty"`
}

// Effects receives the UI side effects a session decides on.
type Effects interface {
	PlaySound(sound Sound)
	Celebrate(celebration Celebration)
	Toast(toast Toast)
}

// Effect is one recorded side effect.
type Effect struct {
	Type        string      `json:"type"` // sound, celebration or toast
	Sound       Sound       `json:"sound,omitempty"`
	Celebration Celebration `json:"celebration,omitempty"`
	Particles   int         `json:"particles,omitempty"`
	Toast       *Toast      `json:"toast,omitempty"`
}

// Recorder collects effects in order so a client can replay them.
type Recorder struct {
	mu      sync.Mutex
	effects []Effect
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{effects: []Effect{}}
}

// PlaySound records a sound cue.
func (r *Recorder) PlaySound(sound Sound) {
	r.add(Effect{Type: "sound", Sound: sound})
}

// Celebrate records a particle effect.
func (r *Recorder) Celebrate(celebration Celebration) {
	r.add(Effect{Type: "celebration", Celebration: celebration, Particles: celebration.Particles()})
}

// Toast records a notification.
func (r *Recorder) Toast(toast Toast) {
	r.add(Effect{Type: "toast", Toast: &toast})
}

func (r *Recorder) add(e Effect) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.effects = append(r.effects, e)
}

// Effects returns a copy of the recorded effects.
func (r *Recorder) Effects() []Effect {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Effect{}, r.effects...)
}

package anim

import "github.com/Faultbox/midgard-scene/pkg/handle"

// Clip is a named set of channels played together.
type Clip struct {
	Channels []Channel

	// Roots are the animated nodes with no animated ancestor in this clip.
	// Repropagation after sampling starts from them.
	Roots []handle.Handle

	// Skins whose joints move when this clip plays.
	Skins []handle.Handle
}

// Length returns the latest last-keyframe time across all channels, or 0
// for a clip without channels.
func (c *Clip) Length() float32 {
	if len(c.Channels) == 0 {
		return 0
	}
	length := c.Channels[0].End()
	for i := range c.Channels[1:] {
		if end := c.Channels[i+1].End(); end > length {
			length = end
		}
	}
	return length
}

// Targets returns the distinct target nodes, optionally restricted to
// transform channels.
func (c *Clip) Targets(transformOnly bool) []handle.Handle {
	seen := make(map[handle.Handle]struct{}, len(c.Channels))
	var out []handle.Handle
	for i := range c.Channels {
		ch := &c.Channels[i]
		if transformOnly && ch.Property == Weights {
			continue
		}
		if _, ok := seen[ch.Target]; ok {
			continue
		}
		seen[ch.Target] = struct{}{}
		out = append(out, ch.Target)
	}
	return out
}

package notify

import "sigherald/internal/config"

// Destination is one (channel, webhook) pair a message must reach.
type Destination struct {
	Name    string
	Webhook string
}

// Resolver maps a matched SIG entry to the destinations that must receive a
// message: the SIG's own channel, plus the community catch-all channel. The
// community entry itself resolves to exactly one destination.
type Resolver struct {
	communityPrefix string
	community       *config.SIGConfig
}

func NewResolver(cfg *config.Config) *Resolver {
	r := &Resolver{communityPrefix: cfg.CommunityPrefix}
	for i := range cfg.SIGs {
		if cfg.SIGs[i].Prefix == cfg.CommunityPrefix {
			r.community = &cfg.SIGs[i]
			break
		}
	}
	return r
}

// Resolve returns the destination list for a matched SIG, own channel first.
func (r *Resolver) Resolve(sig config.SIGConfig) []Destination {
	own := Destination{Name: sig.ChannelName, Webhook: sig.ChannelWebhook}
	if r.community == nil || sig.Prefix == r.communityPrefix {
		return []Destination{own}
	}
	return []Destination{
		own,
		{Name: r.community.ChannelName, Webhook: r.community.ChannelWebhook},
	}
}

package main

import (
	"log"
)

// inbound is one event off a connection: a decoded message, a decode failure,
// or the connection going away.
type inbound struct {
	client *client
	msg    inboundMessage
	err    error
	gone   bool
}

// Router owns the registry and every game and player in it. It processes one
// inbound message at a time to completion (mutation, then broadcasts), so
// handlers never interleave mid-mutation and the state needs no locks.
type Router struct {
	cfg   *Config
	reg   *Registry
	inbox chan inbound
}

func newRouter(cfg *Config, reg *Registry) *Router {
	return &Router{
		cfg:   cfg,
		reg:   reg,
		inbox: make(chan inbound, 64),
	}
}

func (rt *Router) run() {
	for in := range rt.inbox {
		rt.dispatch(in)
	}
}

func (rt *Router) dispatch(in inbound) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("BUG: panic handling %q: %v", in.msg.Action, r)
			rt.reportError(in.client, "unknown")
		}
	}()

	if in.gone {
		in.client.detach()
		logf(rt.cfg, "ROUTE: connection closed")
		return
	}

	if in.err != nil {
		logf(rt.cfg, "ROUTE: undecodable message: %v", in.err)
		rt.reportError(in.client, "parsing-json")
		return
	}

	p := in.client.player
	if p == nil {
		p = rt.resolveIdentity(in)
		if p == nil {
			return
		}
	}

	if err := p.handle(rt.cfg, rt.reg, in.msg); err != nil {
		why, known := reason(err)
		if !known {
			log.Printf("BUG: player %s action %q: %v", p.id, in.msg.Action, err)
		}
		rt.reportError(in.client, why)
	}
}

// resolveIdentity binds a connection to a player. A fresh connection must
// open with identify (new identity) or re-join (existing identity, new
// channel); anything else is rejected.
func (rt *Router) resolveIdentity(in inbound) *Player {
	switch in.msg.Action {
	case "identify":
		p := newPlayer(rt.reg, in.client)
		in.client.player = p
		logf(rt.cfg, "ROUTE: created player %s", p.id)
		return p

	case "re-join":
		id, err := in.msg.text()
		if err != nil {
			rt.reportError(in.client, "parsing-json")
			return nil
		}
		p, err := rt.reg.player(id)
		if err != nil {
			rt.reportError(in.client, "player-not-found")
			return nil
		}
		p.conn = in.client
		in.client.player = p
		logf(rt.cfg, "ROUTE: player %s re-joined on a new connection", p.id)
		return p

	default:
		rt.reportError(in.client, "player-not-found")
		return nil
	}
}

func (rt *Router) reportError(c *client, why string) {
	if err := c.write(Message{Action: "error", Payload: why}); err != nil {
		log.Printf("ERROR: reporting %q: %v", why, err)
	}
}

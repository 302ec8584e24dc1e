package room

import "liaptui/pkg/statemachine"

// Connection lifecycle states, grounded on the teacher's pkg/statemachine
// generic StateFn[T] executor (pkg/poker/player.go's playerStateAtTable /
// playerStateFolded / playerStateLeft functions), adapted from a poker
// player's seating states to a connection's membership states (spec §4.7's
// grace-window eviction). Each state self-loops rather than polling a
// condition, since transitions here are driven explicitly by Broadcaster at
// known points (connect, grace armed, grace cancelled, grace expired) rather
// than ticked on a loop.

func connStateActive(c *Connection, cb func(string, statemachine.StateEvent)) statemachine.StateFn[Connection] {
	if cb != nil {
		cb("ACTIVE", statemachine.StateEntered)
	}
	return connStateActive
}

func connStateGrace(c *Connection, cb func(string, statemachine.StateEvent)) statemachine.StateFn[Connection] {
	if cb != nil {
		cb("GRACE", statemachine.StateEntered)
	}
	return connStateGrace
}

func connStateEvicted(c *Connection, cb func(string, statemachine.StateEvent)) statemachine.StateFn[Connection] {
	if cb != nil {
		cb("EVICTED", statemachine.StateEntered)
	}
	return connStateEvicted
}

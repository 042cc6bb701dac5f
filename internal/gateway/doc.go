// Package gateway implements the realtime presence and messaging gateway: the
// websocket handshake and lifecycle, the session registry of live connections,
// the middleware-style message router, the heartbeat-driven liveness prober,
// and the presence broadcaster that fans notifications out to a user's friends.
package gateway

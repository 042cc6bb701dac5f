package gateway

// NewUserRouter builds the handler chains of the user message namespace.
func NewUserRouter(h *Handlers) *Router {
	r := NewRouter()
	r.Use("broadcastConnection",
		h.getUser,
		h.getSessions,
		h.broadcastConnection,
	)
	r.Use("heartbeat",
		h.getUser,
		h.heartbeat,
	)
	r.Use("welcome",
		h.getUser,
		h.checkWelcomeInput,
		h.findRecipient,
		h.checkFriendship,
		h.sendWelcome,
	)
	return r
}

// NewGatewayRouter assembles the full dispatch table. Clients address chains
// by their mounted name, e.g. "user/heartbeat".
func NewGatewayRouter(h *Handlers) *Router {
	root := NewRouter()
	root.Mount("user", NewUserRouter(h))
	return root
}

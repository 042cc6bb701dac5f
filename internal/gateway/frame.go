package gateway

// Outbound message types.
const (
	TypeError              = "error"
	TypeFriendConnected    = "friendConnected"
	TypeFriendDisconnected = "friendDisconnected"
	TypeWelcome            = "welcome"
)

// Symbolic handshake and dispatch failure reasons surfaced to clients.
const (
	ReasonInsufficientQuery   = "INSUFFICIENT_QUERY"
	ReasonAccessTokenExpired  = "ACCESS_TOKEN_EXPIRED"
	ReasonInvalidToken        = "INVALID_TOKEN"
	ReasonUserNotExist        = "USER_NOT_EXIST"
	ReasonSessionNotExist     = "SESSION_NOT_EXIST"
	ReasonUserNotFound        = "USER_NOT_FOUND"
	ReasonInsufficientInput   = "INSUFFICIENT_INPUT_DATA"
	ReasonNotFriend           = "NOT_FRIEND"
)

// Error-frame namespaces. Handshake failures are reported under connectPrefix,
// dispatch failures under dispatchPrefix.
const (
	connectPrefix  = "ws/onconnection"
	dispatchPrefix = "ws/onmessage"
)

// Frame is one inbound message unit: a type selecting the handler chain and an
// optional payload.
type Frame struct {
	Type string  `json:"type"`
	Data Payload `json:"data,omitempty"`
}

// Payload is the free-form data object of a frame.
type Payload map[string]interface{}

// ErrorFrame is the error message shape sent to clients.
type ErrorFrame struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// Notification is the shape of every server-initiated push.
type Notification struct {
	Type string      `json:"type"`
	Item interface{} `json:"item"`
}

func newErrorFrame(prefix, reason string) ErrorFrame {
	return ErrorFrame{Type: TypeError, Message: prefix + "/" + reason}
}

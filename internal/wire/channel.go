package wire

// DefaultChannel is the realtime channel chat clients publish message
// events on.
const DefaultChannel = "/event/chatter/message"

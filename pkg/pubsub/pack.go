package pubsub

// Pack is a single message on the wire. Key is used for partitioning so
// events of the same channel keep their relative order.
type Pack struct {
	Key []byte
	Msg []byte
}

// Package broker fans agent events out to subscribed hooks. The local
// implementation is an in-process pub/sub over haxmap; the NATS
// implementation carries the same events across process boundaries using the
// events JSON codec.
package broker

package play

import "errors"

var (
	errExpectedHello      = errors.New("play: first message must be hello")
	errUnsupportedVersion = errors.New("play: unsupported protocol version")
)

package natsjetstream

import "time"

type Config struct {
	URL           string
	MaxReconnect  int
	ReconnectWait time.Duration
	Timeout       time.Duration
}

type ConsumerConfig struct {
	StreamName     string
	FilterSubjects []string
	// LastPerSubject replays only the newest message of every subject on
	// (re)subscription instead of the whole stream.
	LastPerSubject bool
}

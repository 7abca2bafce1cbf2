package internal

import "time"

// Channel buffer size constants
const (
	// RankQueueSize is the number of pending rank loads before new ones are dropped
	RankQueueSize = 50

	// RankLoadWorkers is the number of rank loads running at once
	RankLoadWorkers = 3
)

// Timeouts applied to work started by players, operators or the network.
const (
	// AdmitTimeout bounds the whitelist check made while a player connects
	AdmitTimeout = 5 * time.Second

	// CommandTimeout bounds a single whitelist command
	CommandTimeout = 15 * time.Second

	// SweepTimeout bounds a full sweep of the connected players
	SweepTimeout = time.Minute

	// RankFetchTimeout bounds loading the ranks of a joining player
	RankFetchTimeout = 10 * time.Second

	// ShutdownTimeout is how long the API server gets to finish requests on close
	ShutdownTimeout = 5 * time.Second
)

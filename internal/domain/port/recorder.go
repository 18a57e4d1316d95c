package port

import "time"

// MooringEvent describes one AcquireBerth attempt
type MooringEvent struct {
	ShipID  ShipID
	BerthID int // -1 when no berth was granted
	Wait    time.Duration
	Err     error
}

// ReleaseEvent describes one successful ReleaseBerth
type ReleaseEvent struct {
	ShipID  ShipID
	BerthID int
}

// TransferEvent describes one Add/Get attempt.
// PortLevel is the port warehouse occupancy observed under its lock,
// or -1 when the port lock was never acquired.
type TransferEvent struct {
	BerthID   int
	Direction Direction
	Units     int
	PortLevel int
	Err       error
}

// Recorder receives port activity, typically to export metrics
type Recorder interface {
	RecordMooring(event MooringEvent)
	RecordRelease(event ReleaseEvent)
	RecordTransfer(event TransferEvent)
}

type noOpRecorder struct{}

func (noOpRecorder) RecordMooring(MooringEvent)   {}
func (noOpRecorder) RecordRelease(ReleaseEvent)   {}
func (noOpRecorder) RecordTransfer(TransferEvent) {}

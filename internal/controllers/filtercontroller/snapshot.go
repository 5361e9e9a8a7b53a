package filtercontroller

import (
	"github.com/thatsimonsguy/filtration-controller/internal/status"
)

// Snapshot copies the control state into a status record.
func (c *Control) Snapshot(sessionID string) status.Snapshot {
	breach := status.NoBreach
	if c.WaterBreach != nil {
		breach = c.WaterBreach.String()
	}

	var distance uint16
	if c.Distance.Valid {
		distance = c.Distance.Centimeters
	}

	return status.Snapshot{
		SessionID:      sessionID,
		StartTime:      c.StartTime.String(),
		CurrentTime:    c.CurrentTime.String(),
		Valves:         status.ValvesOf(c.Valves.State()),
		Mode:           c.Mode.Kind,
		Pending:        c.Mode.Pending(),
		DistanceCM:     distance,
		Breach:         breach,
		AlreadyCleaned: c.AlreadyCleaned,
		ControlMode:    c.Mode,
	}
}

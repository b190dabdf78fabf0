package qdisc

import "fmt"

// LinkMode selects the cell framing applied on top of the adjusted length.
type LinkMode string

const (
	// LinkModeNone sends the adjusted length unchanged.
	LinkModeNone LinkMode = "none"
	// LinkModeATM pads to whole ATM cells: 48 payload bytes cost 53 on the wire.
	LinkModeATM LinkMode = "atm"
	// LinkModePTM pads to whole PTM frames: 64 payload bytes cost 65 on the wire.
	LinkModePTM LinkMode = "ptm"
)

// validLinkModes maps accepted link mode strings.
var validLinkModes = map[LinkMode]bool{
	LinkModeNone: true,
	LinkModeATM:  true,
	LinkModePTM:  true,
	"":           true, // empty defaults to none
}

// IsValidLinkMode returns true if the given string is a recognized link mode.
func IsValidLinkMode(mode string) bool {
	return validLinkModes[LinkMode(mode)]
}

const (
	atmCellPayload  = 48
	atmCellSize     = 53
	ptmFramePayload = 64
	ptmFrameSize    = 65
)

// ComputeWireLength returns the number of bytes a packet of rawLength bytes
// occupies on the wire.
//
// headerAdjustment is subtracted first (bytes the network layer strips, or
// adds when negative), then the per-packet encapsulation overhead is added,
// then ATM or PTM padding rounds up to whole cells. The result is clamped at
// zero. A packet shorter than a positive headerAdjustment is malformed and
// yields ErrInvalidPacketLength.
func ComputeWireLength(rawLength uint32, headerAdjustment int, overhead int, mode LinkMode) (uint64, error) {
	if headerAdjustment > 0 && int64(rawLength) < int64(headerAdjustment) {
		return 0, fmt.Errorf("%w: %d bytes is shorter than the %d byte header adjustment",
			ErrInvalidPacketLength, rawLength, headerAdjustment)
	}
	adjusted := int64(rawLength) - int64(headerAdjustment) + int64(overhead)
	if adjusted < 0 {
		adjusted = 0
	}
	switch mode {
	case LinkModeATM:
		adjusted = (adjusted + atmCellPayload - 1) / atmCellPayload * atmCellSize
	case LinkModePTM:
		adjusted = (adjusted + ptmFramePayload - 1) / ptmFramePayload * ptmFrameSize
	}
	return uint64(adjusted), nil
}

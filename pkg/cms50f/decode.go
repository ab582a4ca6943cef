package cms50f

import (
	"fmt"
	"time"
)

// Minimum response sizes read per exchange and required by the field decoders.
const (
	AckResponseSize       = 8
	LengthResponseSize    = 7
	StartTimeResponseSize = 15
	ChunkSize             = 8
	SamplesPerChunk       = 3
)

// StorageLength is the recording length reported by the device.
type StorageLength struct {
	// Count is in half-second units.
	Count uint32
}

// Seconds returns the recording duration, which is also the number
// of samples stored at the 1 Hz output rate.
func (l StorageLength) Seconds() uint32 {
	return l.Count / 2
}

// DecodeStorageLength decodes a masked storage length response.
func DecodeStorageLength(b []byte) (StorageLength, error) {
	if len(b) < LengthResponseSize {
		return StorageLength{}, fmt.Errorf("%w: length response too short (%d bytes)", ErrUnexpectedResponse, len(b))
	}
	b1, b4, b5, b6 := uint32(b[1]), uint32(b[4]), uint32(b[5]), uint32(b[6])
	x := (b1 & 0x04) << 5
	x |= b4
	x |= (b5 | ((b1 & 0x08) << 4)) << 8
	x |= (b6 | ((b1 & 0x10) << 3)) << 3
	return StorageLength{Count: x}, nil
}

// DecodeStartTime decodes a masked storage start time response.
// The device has no time zone, the fields are interpreted in loc.
func DecodeStartTime(b []byte, loc *time.Location) (time.Time, error) {
	if len(b) < StartTimeResponseSize {
		return time.Time{}, fmt.Errorf("%w: start time response too short (%d bytes)", ErrUnexpectedResponse, len(b))
	}
	if loc == nil {
		loc = time.Local
	}
	year := int(b[4])*100 + int(b[5])
	month, day := int(b[6]), int(b[7])
	hour, minute, sec := int(b[12]), int(b[13]), int(b[14])

	switch {
	case month < 1 || month > 12:
		return time.Time{}, fmt.Errorf("%w: month %d", ErrInvalidTimestamp, month)
	case day < 1 || day > daysIn(year, time.Month(month)):
		return time.Time{}, fmt.Errorf("%w: day %d of %04d-%02d", ErrInvalidTimestamp, day, year, month)
	case hour > 23:
		return time.Time{}, fmt.Errorf("%w: hour %d", ErrInvalidTimestamp, hour)
	case minute > 59:
		return time.Time{}, fmt.Errorf("%w: minute %d", ErrInvalidTimestamp, minute)
	case sec > 59:
		return time.Time{}, fmt.Errorf("%w: second %d", ErrInvalidTimestamp, sec)
	}
	return time.Date(year, time.Month(month), day, hour, minute, sec, 0, loc), nil
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// Reading is one (SpO2, pulse) pair. Zero means no reading.
type Reading struct {
	SpO2  uint8
	Pulse uint8
}

// DecodeChunk decodes the three readings of a masked storage data chunk.
func DecodeChunk(chunk []byte) (readings [SamplesPerChunk]Reading) {
	for i := range readings {
		if off := 2 + i*2; off+1 < len(chunk) {
			readings[i] = Reading{SpO2: chunk[off], Pulse: chunk[off+1]}
		}
	}
	return
}

package cms50f

import (
	"fmt"
	"io"
)

// Command is the code of a request sent to the device.
type Command byte

// Commands understood by the storage protocol.
const (
	CmdStopStorageStreaming  Command = 0xa7
	CmdStopRealtimeStreaming Command = 0xa2
	CmdStorageLength         Command = 0xa4
	CmdStorageStartTime      Command = 0xa5
	CmdStorageData           Command = 0xa6
)

// Response is the code in the first byte of a device response.
type Response byte

// Responses sent by the device.
const (
	ResFreeFeedback     Response = 0x0c
	ResStorageData      Response = 0x0f
	ResStorageStartDate Response = 0x07
	ResStorageLength    Response = 0x08
	ResStorageStartTime Response = 0x12
)

// Commands lists all known commands.
var Commands = []Command{
	CmdStopStorageStreaming,
	CmdStopRealtimeStreaming,
	CmdStorageLength,
	CmdStorageStartTime,
	CmdStorageData,
}

var commandNames = map[Command]string{
	CmdStopStorageStreaming:  "stop sending storage data",
	CmdStopRealtimeStreaming: "stop sending realtime data",
	CmdStorageLength:         "ask for storage data length",
	CmdStorageStartTime:      "ask for storage start time",
	CmdStorageData:           "ask for storage data",
}

var responseNames = map[Response]string{
	ResFreeFeedback:     "free feedback",
	ResStorageData:      "storage data",
	ResStorageStartDate: "storage start date",
	ResStorageLength:    "storage data length",
	ResStorageStartTime: "storage start time",
}

// String implements fmt.Stringer.
func (c Command) String() string {
	if name, ok := commandNames[c]; ok {
		return name
	}
	return fmt.Sprintf("unknown command <%02x>", byte(c))
}

// Response returns the response code the device answers the command with.
func (c Command) Response() Response {
	switch c {
	case CmdStorageLength:
		return ResStorageLength
	case CmdStorageStartTime:
		return ResStorageStartDate
	case CmdStorageData:
		return ResStorageData
	}
	return ResFreeFeedback
}

// String implements fmt.Stringer.
func (r Response) String() string {
	if name, ok := responseNames[r]; ok {
		return fmt.Sprintf("%s <%02x>", name, byte(r))
	}
	return fmt.Sprintf("unknown response <%02x>", byte(r))
}

// FrameSize is the size of a command frame.
const FrameSize = 9

// Frame is an encoded command.
type Frame [FrameSize]byte

const (
	framePreamble0 byte = 0x7d
	framePreamble1 byte = 0x81
	framePadding   byte = 0x80
)

// EncodeCommand builds the command frame.
func EncodeCommand(c Command) Frame {
	return Frame{framePreamble0, framePreamble1, byte(c),
		framePadding, framePadding, framePadding,
		framePadding, framePadding, framePadding}
}

// Command returns the encoded command code.
func (f Frame) Command() Command {
	return Command(f[2])
}

// WriteTo writes the whole frame, retrying on short writes.
func (f Frame) WriteTo(w io.Writer) (n int64, err error) {
	for n < FrameSize {
		var n1 int
		n1, err = w.Write(f[n:])
		n += int64(n1)
		if err != nil {
			return
		}
		if n1 == 0 {
			err = io.ErrShortWrite
			return
		}
	}
	return
}

// MaskOff clears bit 7 of every byte in place.
func MaskOff(b []byte) {
	for i := range b {
		b[i] &= 0x7f
	}
}

// ValidateHeader checks the response code in the first byte.
func ValidateHeader(resp []byte, expected Response) error {
	return validateAt(resp, 0, expected)
}

func validateAt(resp []byte, offset int, expected Response) error {
	if len(resp) <= offset {
		return &UnexpectedResponseError{Expected: expected, Offset: offset}
	}
	if got := resp[offset]; got != byte(expected) {
		return &UnexpectedResponseError{Expected: expected, Got: got, Offset: offset}
	}
	return nil
}

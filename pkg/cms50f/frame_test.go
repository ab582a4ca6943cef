package cms50f

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeCommand(t *testing.T) {
	for _, cmd := range Commands {
		t.Run(cmd.String(), func(t *testing.T) {
			f := EncodeCommand(cmd)
			require.Equal(t, Frame{0x7d, 0x81, byte(cmd), 0x80, 0x80, 0x80, 0x80, 0x80, 0x80}, f)
			require.Equal(t, cmd, f.Command())
		})
	}
}

func TestFrameWriteTo(t *testing.T) {
	testCases := []struct {
		name     string
		maxWrite int
	}{
		{"single write", 0},
		{"short writes", 2},
		{"byte by byte", 1},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ft := &fixtureTransport{maxWrite: tc.maxWrite}
			n, err := EncodeCommand(CmdStorageData).WriteTo(ft)
			require.NoError(t, err)
			require.EqualValues(t, FrameSize, n)
			require.Equal(t, frames(CmdStorageData), ft.written.Bytes())
		})
	}
}

type zeroWriter struct{}

func (zeroWriter) Write(p []byte) (int, error) { return 0, nil }

func TestFrameWriteToErrors(t *testing.T) {
	_, err := EncodeCommand(CmdStorageLength).WriteTo(zeroWriter{})
	require.Equal(t, io.ErrShortWrite, err)

	_, err = EncodeCommand(CmdStorageLength).WriteTo(&fixtureTransport{writeErr: errFixture})
	require.Equal(t, errFixture, err)
}

func TestMaskOff(t *testing.T) {
	b := []byte{0x00, 0x7f, 0x80, 0x81, 0xe1, 0xff}
	MaskOff(b)
	require.Equal(t, []byte{0x00, 0x7f, 0x00, 0x01, 0x61, 0x7f}, b)

	for v := 0; v < 256; v++ {
		once := []byte{byte(v)}
		MaskOff(once)
		twice := bytes.Repeat(once, 1)
		MaskOff(twice)
		require.Equal(t, once, twice)
	}
}

func TestValidateHeader(t *testing.T) {
	responses := []Response{ResFreeFeedback, ResStorageData, ResStorageStartDate, ResStorageLength, ResStorageStartTime}
	for _, cmd := range Commands {
		t.Run(cmd.String(), func(t *testing.T) {
			expected := cmd.Response()
			f := EncodeCommand(cmd)
			require.NoError(t, ValidateHeader([]byte{byte(f.Command().Response()), 0x80}, expected))
			for _, r := range responses {
				if r == expected {
					continue
				}
				err := ValidateHeader([]byte{byte(r), 0x80}, expected)
				require.ErrorIs(t, err, ErrUnexpectedResponse)
				var ure *UnexpectedResponseError
				require.ErrorAs(t, err, &ure)
				require.Equal(t, expected, ure.Expected)
				require.Equal(t, byte(r), ure.Got)
			}
			require.ErrorIs(t, ValidateHeader(nil, expected), ErrUnexpectedResponse)
		})
	}
}

func TestCommandResponse(t *testing.T) {
	testCases := []struct {
		cmd    Command
		expect Response
	}{
		{CmdStopStorageStreaming, ResFreeFeedback},
		{CmdStopRealtimeStreaming, ResFreeFeedback},
		{CmdStorageLength, ResStorageLength},
		{CmdStorageStartTime, ResStorageStartDate},
		{CmdStorageData, ResStorageData},
	}
	for _, tc := range testCases {
		require.Equal(t, tc.expect, tc.cmd.Response(), tc.cmd.String())
	}
	require.Equal(t, "unknown command <01>", Command(1).String())
	require.Equal(t, "storage data <0f>", ResStorageData.String())
}

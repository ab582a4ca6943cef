// Package cms50f provides the storage download protocol of CMS50F pulse oximeters.
package cms50f

// The device speaks a request/response protocol over a 115200 8N1 serial link.
// Every request is a fixed 9-byte command frame. Responses start with a
// response code; all payload bytes carry bit 7 set as a framing guard which
// must be cleared before any numeric interpretation.
//
// A download session silences both streaming modes, queries the recording
// length and start time, then streams the stored samples in 8-byte chunks,
// three (SpO2, pulse) pairs per chunk, one sample per second.

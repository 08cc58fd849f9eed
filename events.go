package divecomputer

// ProgressEvent reports bytes transferred during a dump. Current is
// monotonically non-decreasing within one dump and never exceeds Maximum;
// Maximum may be refined upward exactly once, after the device announces
// its payload length (the enumeration family does this once it reads back
// the length prefix from its 0xC6 probe).
type ProgressEvent struct {
	Current, Maximum uint32
}

// DeviceInfoEvent reports the identity fields recovered from a dump's
// header. Emitted exactly once per dump.
type DeviceInfoEvent struct {
	Model    byte
	Firmware uint32
	Serial   uint32
}

// ClockEvent reports the device clock alongside the host wall-clock
// reading taken at the moment of the query, both in implementation-defined
// epochs. Emitted at most once per dump, only by drivers whose protocol
// exposes a clock read (the enumeration family).
type ClockEvent struct {
	SysTime, DevTime int64
}

// Skew returns SysTime minus DevTime: how far ahead of the device the host
// clock is. Every caller of ClockEvent ends up computing this, so it is
// offered directly rather than pushed onto callers.
func (c ClockEvent) Skew() int64 {
	return c.SysTime - c.DevTime
}

// WarningEvent reports a non-fatal condition encountered mid-extraction —
// currently only the fixed-slot ring buffer's budget exhaustion (a
// logbook entry surviving past the point where its profile bytes can no
// longer be safely attributed within the profile region).
type WarningEvent struct {
	Message string
}

// EventSink receives the events a dump and the extraction that follows it
// produce. Implementations must not call back into the driver from within
// any of these methods.
type EventSink interface {
	OnProgress(ProgressEvent)
	OnDeviceInfo(DeviceInfoEvent)
	OnClock(ClockEvent)
	OnWarning(WarningEvent)
}

// NopSink discards every event. Embed it to satisfy EventSink while only
// overriding the methods a caller actually cares about.
type NopSink struct{}

func (NopSink) OnProgress(ProgressEvent)     {}
func (NopSink) OnDeviceInfo(DeviceInfoEvent) {}
func (NopSink) OnClock(ClockEvent)           {}
func (NopSink) OnWarning(WarningEvent)       {}

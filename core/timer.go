package core

import "time"

var bootTime = time.Now()

// TimerInit marks the boot instant Uptime counts from.
func TimerInit() {
	bootTime = time.Now()
}

// Uptime returns microseconds since TimerInit.
func Uptime() uint64 {
	return uint64(time.Since(bootTime) / time.Microsecond)
}

// GetTime returns the low 32 bits of Uptime.
func GetTime() uint32 {
	return uint32(Uptime())
}

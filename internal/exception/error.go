package exception

import "errors"

// ErrRecordNotFound custom database error for failure to find record
var ErrRecordNotFound = errors.New("record not found")

// ErrScanActive returned when a scan is requested while another is running
var ErrScanActive = errors.New("scan already in progress")

// ErrEmergencyStop returned when a scan is requested or interrupted while the
// emergency stop flag is set
var ErrEmergencyStop = errors.New("emergency stop is set")

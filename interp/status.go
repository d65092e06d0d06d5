// Copyright (c) 2019, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package interp

// Exit statuses shared across the executor. A signalled child reports
// 128 plus the signal number, the usual shell convention.
const (
	StatusSuccess       = 0
	StatusFailure       = 1
	StatusCouldNotExec  = 126
	StatusNoSuchCommand = 127
	statusSignalBase    = 128
)

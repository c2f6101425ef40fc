// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package logging

import (
	"io"

	log "github.com/sirupsen/logrus"
)

// SetLogLevel sets the level for internal logging. Needs to be called very
// early during startup to configure logs emitted during initialization.
func SetLogLevel(logLevel string) {
	level, err := log.ParseLevel(logLevel)
	if err != nil {
		log.WithError(err).Fatal("Failed to set log level. Valid log levels are:", log.AllLevels)
	}
	log.SetLevel(level)
}

// SetOutput configures the logging output writer. The display owns stdout
// while the TUI runs, so logs normally go elsewhere.
func SetOutput(w io.Writer) {
	log.SetOutput(w)
}

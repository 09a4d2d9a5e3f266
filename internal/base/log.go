// Copyright 2026 The DriftKV Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package base

import "go.uber.org/zap"

// log is the package-wide logger used by every layer of the engine to
// report non-fatal recovery failures, manifest rewrites, and compaction
// decisions. It defaults to a no-op so importing this module never forces
// a particular logging backend onto a caller.
var log = zap.NewNop().Sugar()

// SetLogger installs l as the logger used by the engine. Passing nil
// restores the no-op logger.
func SetLogger(l *zap.Logger) {
	if l == nil {
		log = zap.NewNop().Sugar()
		return
	}
	log = l.Sugar()
}

// Log returns the currently installed logger, for use by packages that
// need to log at call sites outside base itself.
func Log() *zap.SugaredLogger { return log }

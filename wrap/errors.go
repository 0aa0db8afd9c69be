// Copyright (c) 2023, The CCNLab Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package wrap

import "fmt"

// ConfigError is a fatal configuration error: an option had the wrong
// type, a per-agent mapping omitted an agent, a value was out of its
// allowed set, or a transform was requested for an incompatible space
// or observation.  Almost always raised at construction; checks that
// need the observation itself (down-scale arity under a non-Box
// space) are raised on first use.  It is never recovered internally.
type ConfigError struct {
	Option string `desc:"name of the offending option"`
	Agent  string `desc:"agent id, when the failure is per-agent"`
	Msg    string `desc:"what was wrong"`
}

func (e *ConfigError) Error() string {
	if e.Agent != "" {
		return fmt.Sprintf("wrap: option %s: agent %s: %s", e.Option, e.Agent, e.Msg)
	}
	return fmt.Sprintf("wrap: option %s: %s", e.Option, e.Msg)
}

// ActionError is a call-time error: a supplied continuous action was
// not contained in the computed continuous action space, or an
// unsupported action space kind was encountered.
type ActionError struct {
	Agent string `desc:"agent whose action failed"`
	Msg   string `desc:"what was wrong"`
}

func (e *ActionError) Error() string {
	return fmt.Sprintf("wrap: agent %s: %s", e.Agent, e.Msg)
}

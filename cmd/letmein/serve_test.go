// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LetMeIn Contributors

package main

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/letmein-auth/letmein/pkg/errutil"
)

func TestServeMetrics_StopsWhenContextEnds(t *testing.T) {
	env := newTestEnv(t)
	configFile = ""

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cmd := newRootCmdWithDeps(env.deps)
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(append([]string{"serve-metrics", "--metrics-addr=127.0.0.1:0"}, cheapArgs...))

	require.NoError(t, cmd.ExecuteContext(ctx))
	assert.Contains(t, buf.String(), "Serving metrics on 127.0.0.1:")
}

func TestServeMetrics_BadAddress(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.run("serve-metrics", "--metrics-addr=256.0.0.1:bad")
	errutil.AssertErrorCode(t, err, "METRICS_LISTEN_FAILED")
}

func TestServeMetrics_RequiresAddress(t *testing.T) {
	env := newTestEnv(t)
	path := writeConfig(t, "metrics:\n  addr: \"\"\n")

	_, err := env.run("--config", path, "serve-metrics")
	errutil.AssertErrorCode(t, err, "CONFIG_INVALID")
}

func TestStoreCheck(t *testing.T) {
	pingErr := errors.New("connection refused")
	check := storeCheck(&StoreHandle{Ping: func(context.Context) error { return pingErr }})
	require.NotNil(t, check)
	assert.ErrorIs(t, check(context.Background()), pingErr)

	assert.Nil(t, storeCheck(&StoreHandle{}), "no ping means no readiness gate")
}

package coro

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIPC_SendDrivesCoroutineToCompletion(t *testing.T) {
	p := newIPC(0, Func(func(yield Yield) (any, error) {
		v, err := yield("a")
		require.NoError(t, err)
		return v, nil
	}))
	require.True(t, p.isCoroutine())

	yielded, _, isFinal := p.send()
	require.False(t, isFinal)
	require.Equal(t, "a", yielded)

	p.next = resumeMsg{value: "resumed"}
	_, final, isFinal := p.send()
	require.True(t, isFinal)
	require.Equal(t, "resumed", final.Value)
}

func TestIPC_AwaitingAYieldedHandleRemovesItFromPending(t *testing.T) {
	h1 := PromiseHandle{id: 1}

	p := newIPC(0, Func(func(yield Yield) (any, error) {
		handle, err := yield("spawn")
		if err != nil {
			return nil, err
		}
		// Suspend once more while holding the handle, so the held-but-not-
		// yet-awaited state is observable from outside.
		if _, err := yield("checkpoint"); err != nil {
			return nil, err
		}
		return yield(handle)
	}))

	yielded, _, isFinal := p.send()
	require.False(t, isFinal)
	require.Equal(t, "spawn", yielded)
	require.Empty(t, p.pending)

	// Resume with a handle, the way the scheduler hands back a freshly
	// allocated promise: received but not yet awaited, so it's pending.
	p.next = resumeMsg{value: h1}
	yielded, _, isFinal = p.send()
	require.False(t, isFinal)
	require.Equal(t, "checkpoint", yielded)
	require.Equal(t, []PromiseHandle{h1}, p.pending)

	// Yielding the held handle back is the await; it leaves pending.
	p.next = resumeMsg{value: nil}
	yielded, _, isFinal = p.send()
	require.False(t, isFinal)
	require.Equal(t, h1, yielded)
	require.Empty(t, p.pending)

	p.next = resumeMsg{value: "resolved"}
	_, final, isFinal := p.send()
	require.True(t, isFinal)
	require.Equal(t, "resolved", final.Value)
}

func TestIPC_BareComputationIsNotACoroutine(t *testing.T) {
	p := newIPC(0, func() (any, error) { return 42, nil })
	require.False(t, p.isCoroutine())
}

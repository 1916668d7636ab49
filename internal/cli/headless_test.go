package cli

import (
	"bufio"
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestHeadless(t *testing.T, input string) (*HeadlessCLI, *bytes.Buffer) {
	t.Helper()
	h, _ := newTestHandler(t)
	out := &bytes.Buffer{}
	return &HeadlessCLI{
		handler: h,
		reader:  bufio.NewReader(strings.NewReader(input)),
		writer:  out,
	}, out
}

func TestHeadlessCLI_QuitStopsProcessing(t *testing.T) {
	cli, out := newTestHeadless(t, "")

	quit := cli.processRequest(context.Background(), `{"id":"1","command":"quit"}`)
	require.True(t, quit)
	require.Contains(t, out.String(), "goodbye")

	quit = cli.processRequest(context.Background(), `{"id":"2","command":"chats"}`)
	require.False(t, quit)
}

func TestHeadlessCLI_RunReturnsOnQuit(t *testing.T) {
	cli, out := newTestHeadless(t, `{"id":"1","command":"quit"}`+"\n")

	// Run must hand control back to the caller so shared shutdown runs.
	require.NoError(t, cli.Run(context.Background()))
	require.Contains(t, out.String(), "ready")
	require.Contains(t, out.String(), "goodbye")
}

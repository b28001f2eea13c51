package mailer_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/mailrelay/pkg/mailer"
)

func TestMarkdownToHTML(t *testing.T) {
	t.Parallel()

	out, err := mailer.MarkdownToHTML("Hello **Jane**\nsee you soon")
	require.NoError(t, err)
	require.Equal(t, "<p>Hello <strong>Jane</strong><br>\nsee you soon</p>\n", out)

	out, err = mailer.MarkdownToHTML("<script>alert(1)</script>")
	require.NoError(t, err)
	require.NotContains(t, out, "<script>")
}

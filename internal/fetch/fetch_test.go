package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const articleHTML = `<!DOCTYPE html>
<html><head><title>How Tides Work</title></head>
<body>
<nav>Home | About</nav>
<article>
<h1>How Tides Work</h1>
<p>Tides are the rise and fall of sea levels caused by the combined effects of the gravitational forces exerted by the Moon and the Sun and the rotation of the Earth.</p>
<p>Most places in the ocean usually experience two high tides and two low tides each day, a pattern called a semidiurnal tide. Some locations experience only one high and one low tide each day.</p>
<p>The times and amplitude of tides at a locale are influenced by the alignment of the Sun and Moon, by the pattern of tides in the deep ocean, and by the shape of the coastline.</p>
</article>
<footer>Copyright</footer>
</body></html>`

func TestPreview(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(articleHTML))
	}))
	defer ts.Close()

	p := NewPreviewer(Options{AllowPrivate: true})
	got, err := p.Preview(context.Background(), ts.URL+"/tides")
	require.NoError(t, err)

	assert.Contains(t, got.Title, "Tides")
	assert.Contains(t, got.Text, "semidiurnal")
	assert.NotContains(t, got.Text, "Home | About")
}

func TestPreviewHTTPError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.NotFound(w, nil)
	}))
	defer ts.Close()

	_, err := NewPreviewer(Options{AllowPrivate: true}).Preview(context.Background(), ts.URL)
	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusNotFound, httpErr.Code)
}

func TestPreviewBlocksPrivateAddresses(t *testing.T) {
	p := NewPreviewer(Options{})
	for _, u := range []string{
		"http://127.0.0.1:8080/admin",
		"http://localhost/",
		"http://169.254.169.254/latest/meta-data",
		"http://[::1]/",
		"file:///etc/passwd",
		"ftp://example.com/x",
		"",
	} {
		_, err := p.Preview(context.Background(), u)
		assert.ErrorIs(t, err, ErrInvalidURL, u)
	}
}

func TestCheckURL(t *testing.T) {
	for _, u := range []string{
		"https://93.184.216.34/page",
		"http://example.com/a?b=c",
	} {
		_, err := checkURL(u, false)
		assert.NoError(t, err, u)
	}
	for _, u := range []string{
		"http://10.1.2.3/",
		"http://100.64.0.1/",
		"http://[::ffff:127.0.0.1]/",
		"http://[fd00::1]/",
		"http://localhost./",
		"http://metadata.google.internal/",
		"http://printer.local/",
	} {
		_, err := checkURL(u, false)
		assert.ErrorIs(t, err, errBlockedAddress, u)
	}

	_, err := checkURL("http://127.0.0.1/", true)
	assert.NoError(t, err)
}

func TestDialRejectsPrivateAddress(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(articleHTML))
	}))
	defer ts.Close()
	addr := ts.Listener.Addr().String()

	_, err := newTransport(true).DialContext(context.Background(), "tcp", addr)
	require.ErrorIs(t, err, errBlockedAddress)

	conn, err := newTransport(false).DialContext(context.Background(), "tcp", addr)
	require.NoError(t, err)
	conn.Close()
}

func TestPreviewBlocksAtDialTime(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(articleHTML))
	}))
	defer ts.Close()

	// Skip the URL check so only the transport stands between the
	// request and the loopback server, as with a rebinding DNS answer.
	p := NewPreviewer(Options{})
	p.opts.AllowPrivate = true

	_, err := p.Preview(context.Background(), ts.URL+"/tides")
	assert.ErrorIs(t, err, ErrInvalidURL)
}

func TestClip(t *testing.T) {
	assert.Equal(t, "héllo", clip("héllo", 10))
	assert.Equal(t, "hé…", clip("héllo", 2))
}

package shared

import (
	"fmt"
	"net/url"
	"os/exec"
	"runtime"
)

const spotifyWebURL = "https://open.spotify.com"

var getRuntime = func() string { return runtime.GOOS }

// ArtistURL returns the Spotify web page of an artist.
func ArtistURL(artistID string) string {
	return spotifyWebURL + "/artist/" + url.PathEscape(artistID)
}

// AlbumURL returns the Spotify web page of an album.
func AlbumURL(albumID string) string {
	return spotifyWebURL + "/album/" + url.PathEscape(albumID)
}

func browserCommand(goos, target string) (*exec.Cmd, error) {
	switch goos {
	case "darwin":
		return exec.Command("open", target), nil
	case "linux", "freebsd", "openbsd":
		return exec.Command("xdg-open", target), nil
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", target), nil
	default:
		return nil, fmt.Errorf("unsupported platform: %s", goos)
	}
}

// OpenBrowser opens the default system browser to the specified URL.
//
// Supports macOS, Linux/BSD, and Windows platforms.
func OpenBrowser(target string) error {
	cmd, err := browserCommand(getRuntime(), target)
	if err != nil {
		return err
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to open browser: %w", err)
	}
	go cmd.Wait()
	return nil
}

// Package services implements the remote collaborators of the watch engine.
//
// # Metadata Provider
//
// [SpotifyService] implements [MetadataProvider] against the Spotify Web API.
// It authenticates with the OAuth2 client credentials grant; the clientcredentials token source
// caches the app token and refreshes it when it expires, so no user authorization is involved.
//
// Discographies are paged with limit=50 until the API stops returning a next page.
//
// # Download Dispatcher
//
// [DownloadService] implements [Dispatcher] by posting submissions to the download queue API.
// The queue answers with the items it accepted and the items it already had, which map to
// [models.SubmitResult].
//
// # Error Handling
//
// Services use typed errors from shared package:
//   - [shared.ErrMetadataFetch] : the provider could not return the requested record
//   - [shared.ErrNotFound] : the provider reported 404 (wrapped together with ErrMetadataFetch)
//   - [shared.ErrAPIRequest] : non-2xx response from either API
//   - [shared.ErrServiceUnavailable] : rate limited or 5xx
package services

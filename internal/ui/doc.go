// Package ui implements an interactive watchlist browser using bubbletea's Elm architecture.
//
// The TUI has four views:
//  1. [ArtistListView] : Browse watched artists, trigger checks, open an artist in the browser
//  2. [AlbumListView] : Known albums of the selected artist
//  3. [ConfirmView] : Confirm removing an artist from the watchlist
//  4. [CheckView] : Live progress of running checks and the last batch report
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Progress updates flow from the scheduler through a channel that the model drains one message at a time.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, y/n, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui

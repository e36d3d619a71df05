// Package models defines domain entities for the discwatch artist watch service.
//
// The package contains two categories of types:
//
// 1. Provider records: explicit structs decoded and validated at the metadata provider boundary
//   - [ArtistRef] : Artist id and display name as listed on an album
//   - [AlbumRef] : Album entry from an artist's discography
//   - [AlbumDetail] : Full album record used when marking albums as known
//   - [Discography] : All album entries for one artist
//
// 2. Persistent entities: rows owned by the watch store
//   - [WatchedArtist] : An artist being monitored for new releases
//   - [KnownAlbum] : An album already acquired or deliberately marked as present
//   - [CheckRun] : History of completed watch passes
//
// Result types ([ReconciliationResult], [DispatchReport], [MarkResult]) carry counts and an [Outcome]
// so callers can tell "nothing happened" from partial and complete success.
package models

// Package services implements the credential, token and playback logic behind the local server.
//
// # Auth Manager
//
// [AuthManager] binds the persisted config to the Spotify OAuth flow. It keeps a single [AuthHandle] whose identity is a
// fingerprint of client_id, client_secret and redirect_uri; any change produces a fresh handle. [AuthManager.MutateConfig]
// is the only path that changes credentials and it clears the token cache in the same critical section.
//
// # Token Cache
//
// [TokenStore] persists the one cached token together with the client id it was issued for:
//   - [FileTokenStore] : JSON file, the default (.spotify_cache)
//   - [SQLTokenStore] : SQLite, selected for .db/.sqlite paths
//
// # Playback
//
// [PlaybackService] turns each control command into exactly one Web API call through a [Player] (a
// [github.com/zmb3/spotify/v2.Client] in production) and maps failures onto the shared sentinels:
//   - [shared.ErrNotConfigured] : no client credentials
//   - [shared.ErrNotAuthenticated] : no usable token, visit /api/auth/url
//   - [shared.ErrNoActiveDevice] : nothing is playing
//   - [shared.UpstreamError] : any other API failure, message kept verbatim
//
// # API Client
//
// [APIService] talks to a running server and backs the CLI's auth, pair, player and api commands.
package services

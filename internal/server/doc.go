// Package server exposes the library operations as a local JSON API.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
// [BasicRouter] registers method patterns on an [http.ServeMux], so handlers read
// wildcards such as {id} through [http.Request.PathValue].
//
// [Middleware] wraps handlers in reverse order (last added executes innermost).
// [Metrics] records Prometheus request counters labelled by route pattern, [Logging]
// writes one line per request and [Recover] converts panics into 500 responses.
//
// # API
//
// [API] groups its endpoints as a [Handler] and is mounted with [Router.Mount].
// Routes mirror the library operations one to one:
//
//	GET    /api/playlists                      list
//	POST   /api/playlists                      create {title, parentListId}
//	GET    /api/playlists/tree                 nested tree in sibling order
//	GET    /api/playlists/search?q=            title search
//	POST   /api/playlists/reorder              {parentListId, ids}
//	PATCH  /api/playlists/{id}                 rename {title}
//	DELETE /api/playlists/{id}                 delete, children move up
//	POST   /api/playlists/{id}/move            {parentListId}
//	GET    /api/playlists/{id}/export?format=  csv, markdown, txt, m3u, json
//	GET    /api/playlists/{id}/tracks          entries in chain order
//	POST   /api/playlists/{id}/tracks          add {trackId, databaseUuid}
//	POST   /api/playlists/{id}/tracks/remove   {ids}
//	POST   /api/playlists/{id}/tracks/reorder  {ids}
//	DELETE /api/playlists/{id}/tracks/{entity} remove one entry
//	GET    /api/tracks, /api/tracks/{id}       list, get
//	PATCH  /api/tracks/{id}                    update {column: value}
//	DELETE /api/tracks/{id}                    purge with memberships
//	POST   /api/waveforms                      {trackIds}
//	POST   /api/resolve/check                  {roots, files}
//	POST   /api/resolve/find                   {filename, bitrate, length, roots, exclude}
//	GET    /api/library                        stats of the open file
//	GET    /api/library/databases              library directory listing
//	POST   /api/library/switch|directory|init  {file} or {path}
//	GET    /api/library/verify                 chain integrity report
//
// Errors are returned as {"error": "..."} with the status chosen by [StatusFor].
// Prometheus metrics are served on /metrics.
package server

package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/edbx/internal/formatter"
	"github.com/desertthunder/edbx/internal/models"
	"github.com/desertthunder/edbx/internal/services"
	"github.com/desertthunder/edbx/internal/shared"
	"github.com/desertthunder/edbx/internal/tasks"
)

// Library is the open library plus the directory it was chosen from.
// *store.Store satisfies it.
type Library interface {
	services.Library
	Dir() string
	Current() string
	SetDir(dir string) error
	Switch(file string) error
	Init(ctx context.Context, file string) (*models.Information, error)
	Databases(ctx context.Context) ([]models.DatabaseSummary, error)
	Stats(ctx context.Context) (*models.Stats, error)
}

// API serves the library operations as JSON endpoints.
type API struct {
	lib       Library
	playlists *services.PlaylistService
	members   *services.MembershipService
	tracks    *services.TrackService
	waveforms *services.WaveformService
	integrity *services.IntegrityService
	resolve   *tasks.ResolveEngine
	export    *tasks.ExportEngine
	logger    *log.Logger
}

// NewAPI creates the API over lib. File matching uses the defaults in resolver.
func NewAPI(lib Library, resolver shared.ResolverConfig, logger *log.Logger) *API {
	logger = shared.WithLogger(logger, "component", "api")
	playlists := services.NewPlaylistService(lib, logger)
	members := services.NewMembershipService(lib, logger)
	return &API{
		lib:       lib,
		playlists: playlists,
		members:   members,
		tracks:    services.NewTrackService(lib, logger),
		waveforms: services.NewWaveformService(lib, logger),
		integrity: services.NewIntegrityService(lib, logger),
		resolve:   tasks.NewResolveEngine(resolver, logger),
		export:    tasks.NewExportEngine(playlists, members, logger),
		logger:    logger,
	}
}

// Routes returns every API endpoint.
func (a *API) Routes() []Route {
	return []Route{
		{http.MethodGet, "/api/playlists", a.listPlaylists},
		{http.MethodPost, "/api/playlists", a.createPlaylist},
		{http.MethodGet, "/api/playlists/tree", a.playlistTree},
		{http.MethodGet, "/api/playlists/search", a.searchPlaylists},
		{http.MethodPost, "/api/playlists/reorder", a.reorderPlaylists},
		{http.MethodGet, "/api/playlists/{id}", a.getPlaylist},
		{http.MethodPatch, "/api/playlists/{id}", a.renamePlaylist},
		{http.MethodDelete, "/api/playlists/{id}", a.deletePlaylist},
		{http.MethodPost, "/api/playlists/{id}/move", a.movePlaylist},
		{http.MethodGet, "/api/playlists/{id}/export", a.exportPlaylist},
		{http.MethodGet, "/api/playlists/{id}/tracks", a.playlistTracks},
		{http.MethodPost, "/api/playlists/{id}/tracks", a.addTrack},
		{http.MethodPost, "/api/playlists/{id}/tracks/remove", a.removeTracks},
		{http.MethodPost, "/api/playlists/{id}/tracks/reorder", a.reorderTracks},
		{http.MethodDelete, "/api/playlists/{id}/tracks/{entity}", a.removeTrack},

		{http.MethodGet, "/api/tracks", a.listTracks},
		{http.MethodGet, "/api/tracks/{id}", a.getTrack},
		{http.MethodPatch, "/api/tracks/{id}", a.updateTrack},
		{http.MethodDelete, "/api/tracks/{id}", a.purgeTrack},

		{http.MethodPost, "/api/waveforms", a.getWaveforms},
		{http.MethodPost, "/api/resolve/check", a.checkFilePaths},
		{http.MethodPost, "/api/resolve/find", a.findMatchingFiles},

		{http.MethodGet, "/api/library", a.libraryStats},
		{http.MethodGet, "/api/library/databases", a.listDatabases},
		{http.MethodPost, "/api/library/switch", a.switchLibrary},
		{http.MethodPost, "/api/library/directory", a.setDirectory},
		{http.MethodPost, "/api/library/init", a.initLibrary},
		{http.MethodGet, "/api/library/verify", a.verifyLibrary},
	}
}

type idResponse struct {
	ID int64 `json:"id"`
}

type idsRequest struct {
	IDs []int64 `json:"ids"`
}

type playlistRequest struct {
	Title    string `json:"title"`
	ParentID int64  `json:"parentListId"`
}

type reorderRequest struct {
	ParentID int64   `json:"parentListId"`
	IDs      []int64 `json:"ids"`
}

type addTrackRequest struct {
	TrackID      int64  `json:"trackId"`
	DatabaseUUID string `json:"databaseUuid"`
}

type checkRequest struct {
	Roots []string          `json:"roots"`
	Files []tasks.PathCheck `json:"files"`
}

type waveformRequest struct {
	TrackIDs []int64 `json:"trackIds"`
}

type libraryRequest struct {
	File string `json:"file"`
	Path string `json:"path"`
}

func (a *API) listPlaylists(w http.ResponseWriter, r *http.Request) {
	playlists, err := a.playlists.List(r.Context())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.respond(w, r, http.StatusOK, playlists)
}

func (a *API) playlistTree(w http.ResponseWriter, r *http.Request) {
	roots, err := a.playlists.Tree(r.Context())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.respond(w, r, http.StatusOK, roots)
}

func (a *API) searchPlaylists(w http.ResponseWriter, r *http.Request) {
	playlists, err := a.playlists.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.respond(w, r, http.StatusOK, playlists)
}

func (a *API) getPlaylist(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	p, err := a.playlists.Get(r.Context(), id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.respond(w, r, http.StatusOK, p)
}

func (a *API) createPlaylist(w http.ResponseWriter, r *http.Request) {
	var req playlistRequest
	if err := decode(r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	id, err := a.playlists.Create(r.Context(), req.Title, req.ParentID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.respond(w, r, http.StatusCreated, idResponse{ID: id})
}

func (a *API) renamePlaylist(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	var req playlistRequest
	if err := decode(r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	if err := a.playlists.Rename(r.Context(), id, req.Title); err != nil {
		a.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) deletePlaylist(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if err := a.playlists.Delete(r.Context(), id); err != nil {
		a.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) movePlaylist(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	var req playlistRequest
	if err := decode(r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	if err := a.playlists.Move(r.Context(), id, req.ParentID); err != nil {
		a.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) reorderPlaylists(w http.ResponseWriter, r *http.Request) {
	var req reorderRequest
	if err := decode(r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	if err := a.playlists.Reorder(r.Context(), req.ParentID, req.IDs); err != nil {
		a.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

var exportContentTypes = map[string]string{
	formatter.FormatCSV:      "text/csv; charset=utf-8",
	formatter.FormatMarkdown: "text/markdown; charset=utf-8",
	formatter.FormatText:     "text/plain; charset=utf-8",
	formatter.FormatM3U:      "audio/x-mpegurl",
	formatter.FormatJSON:     "application/json",
}

func (a *API) exportPlaylist(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	format := strings.ToLower(r.URL.Query().Get("format"))
	if format == "" {
		format = formatter.FormatM3U
	}

	export, err := a.export.Export(r.Context(), id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	data, err := formatter.Render(export, format)
	if err != nil {
		a.fail(w, r, err)
		return
	}

	contentType, ok := exportContentTypes[format]
	if !ok {
		contentType = "text/plain; charset=utf-8"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+formatter.Filename(export.Playlist, format)+`"`)
	w.Write(data)
}

func (a *API) playlistTracks(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	tracks, err := a.members.Tracks(r.Context(), id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.respond(w, r, http.StatusOK, tracks)
}

func (a *API) addTrack(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	var req addTrackRequest
	if err := decode(r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	entityID, err := a.members.Add(r.Context(), id, req.TrackID, req.DatabaseUUID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.respond(w, r, http.StatusCreated, idResponse{ID: entityID})
}

func (a *API) removeTrack(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	entityID, err := pathID(r, "entity")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if err := a.members.Remove(r.Context(), id, entityID); err != nil {
		a.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) removeTracks(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	var req idsRequest
	if err := decode(r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	removed, err := a.members.RemoveMany(r.Context(), id, req.IDs)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if removed == nil {
		removed = []int64{}
	}
	a.respond(w, r, http.StatusOK, map[string][]int64{"removed": removed})
}

func (a *API) reorderTracks(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	var req idsRequest
	if err := decode(r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	if err := a.members.Reorder(r.Context(), id, req.IDs); err != nil {
		a.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) listTracks(w http.ResponseWriter, r *http.Request) {
	tracks, err := a.tracks.List(r.Context())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.respond(w, r, http.StatusOK, tracks)
}

func (a *API) getTrack(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	t, err := a.tracks.Get(r.Context(), id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.respond(w, r, http.StatusOK, t)
}

func (a *API) updateTrack(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	var fields map[string]any
	if err := decode(r, &fields); err != nil {
		a.fail(w, r, err)
		return
	}
	updated, err := a.tracks.Update(r.Context(), id, fields)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.respond(w, r, http.StatusOK, map[string][]string{"updated": updated})
}

func (a *API) purgeTrack(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	removed, err := a.tracks.Purge(r.Context(), id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.respond(w, r, http.StatusOK, map[string]int{"memberships": removed})
}

func (a *API) getWaveforms(w http.ResponseWriter, r *http.Request) {
	var req waveformRequest
	if err := decode(r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	previews, err := a.waveforms.Get(r.Context(), req.TrackIDs)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.respond(w, r, http.StatusOK, previews)
}

func (a *API) checkFilePaths(w http.ResponseWriter, r *http.Request) {
	var req checkRequest
	if err := decode(r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	found, err := a.resolve.CheckFilePaths(r.Context(), nil, req.Roots, req.Files)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.respond(w, r, http.StatusOK, found)
}

func (a *API) findMatchingFiles(w http.ResponseWriter, r *http.Request) {
	var req tasks.MatchRequest
	if err := decode(r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	candidates, err := a.resolve.FindMatchingFiles(r.Context(), nil, req)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.respond(w, r, http.StatusOK, candidates)
}

func (a *API) libraryStats(w http.ResponseWriter, r *http.Request) {
	stats, err := a.lib.Stats(r.Context())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.respond(w, r, http.StatusOK, stats)
}

func (a *API) listDatabases(w http.ResponseWriter, r *http.Request) {
	databases, err := a.lib.Databases(r.Context())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.respond(w, r, http.StatusOK, map[string]any{"dir": a.lib.Dir(), "databases": databases})
}

func (a *API) switchLibrary(w http.ResponseWriter, r *http.Request) {
	var req libraryRequest
	if err := decode(r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	if err := a.lib.Switch(req.File); err != nil {
		a.fail(w, r, err)
		return
	}
	a.libraryStats(w, r)
}

func (a *API) setDirectory(w http.ResponseWriter, r *http.Request) {
	var req libraryRequest
	if err := decode(r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	if strings.TrimSpace(req.Path) == "" {
		a.fail(w, r, shared.ErrMissingArgument)
		return
	}
	if err := a.lib.SetDir(req.Path); err != nil {
		a.fail(w, r, err)
		return
	}
	a.listDatabases(w, r)
}

func (a *API) initLibrary(w http.ResponseWriter, r *http.Request) {
	var req libraryRequest
	if err := decode(r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	info, err := a.lib.Init(r.Context(), req.File)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.respond(w, r, http.StatusCreated, info)
}

func (a *API) verifyLibrary(w http.ResponseWriter, r *http.Request) {
	report, err := a.integrity.Verify(r.Context())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.respond(w, r, http.StatusOK, map[string]any{"ok": report.OK(), "report": report})
}

package services

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/edbx/internal/chain"
	"github.com/desertthunder/edbx/internal/models"
	"github.com/desertthunder/edbx/internal/repositories"
	"github.com/desertthunder/edbx/internal/shared"
)

// Report lists the link problems of a library.
type Report struct {
	Playlists []chain.Problem `json:"playlists"`
	Entities  []chain.Problem `json:"entities"`
}

// OK reports whether no problem was found.
func (r *Report) OK() bool {
	return len(r.Playlists) == 0 && len(r.Entities) == 0
}

// IntegrityService checks the chains of a library without repairing them.
type IntegrityService struct {
	lib    Library
	logger *log.Logger
}

// NewIntegrityService creates an IntegrityService.
func NewIntegrityService(lib Library, logger *log.Logger) *IntegrityService {
	return &IntegrityService{lib: lib, logger: logger}
}

// Verify checks every sibling chain, the parent links of the playlist tree, and every
// playlist's entry chain.
func (s *IntegrityService) Verify(ctx context.Context) (report *Report, err error) {
	defer observe("library.verify", time.Now(), &err)

	report = &Report{}
	err = s.lib.View(ctx, func(q shared.Querier) error {
		playlists, err := repositories.NewPlaylistRepository(q).Nodes(ctx)
		if err != nil {
			return err
		}
		tree := chain.New(playlists)
		report.Playlists = append(tree.Verify(), tree.VerifyTree(models.RootID)...)

		entities, err := repositories.NewEntityRepository(q).Nodes(ctx)
		if err != nil {
			return err
		}
		report.Entities = chain.New(entities).Verify()
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !report.OK() {
		s.logger.Warn("library has link problems", "playlists", len(report.Playlists), "entities", len(report.Entities))
	}
	return report, nil
}

package repo

import (
	"time"

	"github.com/odvcencio/lut/pkg/object"
	"go.uber.org/zap"
)

// ControlDir is the name of the repository's hidden control directory.
const ControlDir = ".lut"

// Repo represents an opened lut repository. Store, Head, and Staging are
// interfaces so the commit and history paths can run without a real
// filesystem.
type Repo struct {
	RootDir string         // working directory root
	LutDir  string         // .lut/ directory
	Store   object.Storage // content-addressed object store
	Head    HeadStore      // current head pointer
	Staging StagingTable   // path -> blob hash table

	logger *zap.Logger
	now    func() time.Time
}

// Option configures a Repo.
type Option func(*Repo)

// WithLogger sets the logger used for debug events.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Repo) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithClock replaces time.Now for commit timestamps.
func WithClock(now func() time.Time) Option {
	return func(r *Repo) {
		if now != nil {
			r.now = now
		}
	}
}

// New assembles a Repo from explicit collaborators. RootDir and LutDir are
// left empty; filesystem-only operations such as Add need Init or Open.
func New(store object.Storage, head HeadStore, staging StagingTable, opts ...Option) *Repo {
	return newRepo("", "", store, head, staging, opts)
}

func newRepo(rootDir, lutDir string, store object.Storage, head HeadStore, staging StagingTable, opts []Option) *Repo {
	r := &Repo{
		RootDir: rootDir,
		LutDir:  lutDir,
		Store:   store,
		Head:    head,
		Staging: staging,
		logger:  zap.NewNop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func openDir(rootDir, lutDir string, opts []Option) *Repo {
	return newRepo(
		rootDir,
		lutDir,
		object.NewStore(lutDir),
		NewFileHead(lutDir),
		NewIndexFile(lutDir),
		opts,
	)
}

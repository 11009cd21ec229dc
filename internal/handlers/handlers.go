package handlers

import (
	"context"
	"time"

	"stego-server/internal/artifacts"
	"stego-server/internal/carrier"
	"stego-server/internal/database"
	"stego-server/internal/logging"
	"stego-server/internal/media"
	"stego-server/internal/transcribe"
)

var log = logging.For("http")

// DefaultMaxUploadBytes bounds multipart request bodies when Config leaves
// MaxUploadBytes unset.
const DefaultMaxUploadBytes int64 = 512 << 20

// multipartMemory is how much of a multipart body is held in memory before
// spilling to temp files.
const multipartMemory = 32 << 20

// VideoPipeline is the subset of *video.Pipeline the handlers use.
type VideoPipeline interface {
	Encode(ctx context.Context, payload string) (*artifacts.Artifact, error)
	Decode(ctx context.Context, path string) (media.Result, error)
	Carrier() carrier.Video
}

// Config holds handler dependencies.
type Config struct {
	Catalog    *carrier.Catalog
	CarrierDir string
	Store      *artifacts.Store
	// Video may be nil when no video carrier is configured.
	Video VideoPipeline
	// Transcriber may be nil; speech to text then fails.
	Transcriber    transcribe.Transcriber
	TempDir        string
	MaxUploadBytes int64
	AuthRequired   bool
}

// Handlers serves the HTTP API.
type Handlers struct {
	db             *database.Database
	catalog        *carrier.Catalog
	carrierDir     string
	store          *artifacts.Store
	video          VideoPipeline
	transcriber    transcribe.Transcriber
	tempDir        string
	maxUploadBytes int64
	authRequired   bool
	startTime      time.Time
}

func New(db *database.Database, cfg Config) *Handlers {
	catalog := cfg.Catalog
	if catalog == nil {
		catalog = carrier.DefaultCatalog()
	}
	maxUpload := cfg.MaxUploadBytes
	if maxUpload <= 0 {
		maxUpload = DefaultMaxUploadBytes
	}
	return &Handlers{
		db:             db,
		catalog:        catalog,
		carrierDir:     cfg.CarrierDir,
		store:          cfg.Store,
		video:          cfg.Video,
		transcriber:    cfg.Transcriber,
		tempDir:        cfg.TempDir,
		maxUploadBytes: maxUpload,
		authRequired:   cfg.AuthRequired,
		startTime:      time.Now(),
	}
}

package catalog

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Asset is one cataloged image file. It is created during discovery with only
// path and size populated; enrichment phases fill in the rest.
type Asset struct {
	ID             string     `json:"id"`
	CollectionID   string     `json:"collection_id"`
	Path           string     `json:"path"`
	Size           int64      `json:"size"`
	Width          int        `json:"width"`
	Height         int        `json:"height"`
	ContentHash    string     `json:"content_hash,omitempty"`    // SHA-256 hex digest
	PerceptualHash uint64     `json:"perceptual_hash,omitempty"` // pHash fingerprint
	HasPerceptual  bool       `json:"has_perceptual"`
	ThumbnailPath  string     `json:"thumbnail_path,omitempty"`
	Exif           *ExifData  `json:"exif,omitempty"`
	ModTime        time.Time  `json:"mod_time"`
	FileCreatedAt  time.Time  `json:"file_created_at"` // zero when the platform exposes no birth time
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// CaptureTime returns the EXIF capture timestamp when known.
func (a *Asset) CaptureTime() (time.Time, bool) {
	if a.Exif != nil && a.Exif.TakenAt != nil {
		return *a.Exif.TakenAt, true
	}
	return time.Time{}, false
}

// NewAssetID returns a fresh asset identifier.
func NewAssetID() string {
	return "ast_" + uuid.NewString()
}

// NewGroupID returns a fresh duplicate group identifier.
func NewGroupID() string {
	return "grp_" + uuid.NewString()
}

// NewCollectionID returns a fresh collection identifier.
func NewCollectionID() string {
	return "col_" + uuid.NewString()
}

// ExifData holds the descriptive metadata read from an image. Every field is
// optional; absence of a value is represented by the zero value plus the
// corresponding Has* accessor on Asset being false.
type ExifData struct {
	TakenAt      *time.Time `json:"taken_at,omitempty"`
	Camera       string     `json:"camera,omitempty"`
	Lens         string     `json:"lens,omitempty"`
	ISO          int        `json:"iso,omitempty"`
	Aperture     float64    `json:"aperture,omitempty"`
	ShutterSpeed string     `json:"shutter_speed,omitempty"`
}

// Collection is a named set of assets rooted at a source directory.
type Collection struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	SourcePath      string    `json:"source_path"`
	OutputPath      string    `json:"output_path"`
	ExcludePatterns []string  `json:"exclude_patterns"`
	FileTypes       []string  `json:"file_types"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// GroupKind classifies how the members of a duplicate group relate.
type GroupKind string

const (
	// KindExact groups byte-identical files (same content hash).
	KindExact GroupKind = "exact"
	// KindNear groups visually similar files (perceptual hash distance).
	KindNear GroupKind = "near"
	// KindBurst groups near-similar files captured within a short window.
	KindBurst GroupKind = "burst"
)

// Group is one duplicate group produced by a grouping run. Groups are
// immutable once produced; a new run yields a new set of groups.
type Group struct {
	ID            string    `json:"id"`
	CollectionID  string    `json:"collection_id"`
	Kind          GroupKind `json:"kind"`
	Members       []*Asset  `json:"members"` // ordered by discovery order
	Similarity    float64   `json:"similarity"`
	SuggestedKeep string    `json:"suggested_keep,omitempty"` // asset id
	CreatedAt     time.Time `json:"created_at"`
}

// DecisionState records what should happen to an asset.
type DecisionState string

const (
	StateKeep      DecisionState = "keep"
	StateRemove    DecisionState = "remove"
	StateUndecided DecisionState = "undecided"
)

// ReasonCode explains why a decision was made.
type ReasonCode string

const (
	ReasonExactDuplicate     ReasonCode = "exact_duplicate"
	ReasonNearDuplicate      ReasonCode = "near_duplicate"
	ReasonHigherResolution   ReasonCode = "higher_resolution"
	ReasonNewerTimestamp     ReasonCode = "newer_timestamp"
	ReasonLargerFilesize     ReasonCode = "larger_filesize"
	ReasonUserOverrideKeep   ReasonCode = "user_override_keep"
	ReasonUserOverrideRemove ReasonCode = "user_override_remove"
	ReasonManual             ReasonCode = "manual"
)

// Decision is the keep/remove verdict for a single asset. At most one
// decision exists per asset; recording a new one supersedes the old.
type Decision struct {
	AssetID   string        `json:"asset_id"`
	State     DecisionState `json:"state"`
	Reason    ReasonCode    `json:"reason"`
	Note      string        `json:"note,omitempty"`
	DecidedAt time.Time     `json:"decided_at"`
}

// ScanPhase enumerates the strictly ordered phases of a scan.
type ScanPhase string

const (
	PhaseDiscovery ScanPhase = "discovery"
	PhaseQuick     ScanPhase = "quick_index"
	PhaseMetadata  ScanPhase = "metadata"
	PhaseThumbnail ScanPhase = "thumbnail"
	PhaseHash      ScanPhase = "hash"
	PhaseComplete  ScanPhase = "complete"
	PhaseCancelled ScanPhase = "cancelled"
)

// Progress is one snapshot of scan state, pushed to consumers as the scan
// runs. EstimatedRemaining is nil until at least one second of work has
// elapsed in the current phase.
type Progress struct {
	Phase              ScanPhase     `json:"phase"`
	FilesProcessed     int           `json:"files_processed"`
	TotalFiles         int           `json:"total_files"`
	CurrentFile        string        `json:"current_file"`
	EstimatedRemaining *time.Duration `json:"estimated_time_remaining,omitempty"`
	QuickScanComplete  bool          `json:"quick_scan_complete"`
}

func (p Progress) String() string {
	return fmt.Sprintf("%s %d/%d %s", p.Phase, p.FilesProcessed, p.TotalFiles, p.CurrentFile)
}

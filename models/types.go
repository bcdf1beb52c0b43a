package models

// Scrub decisions
const (
	ScrubNotReviewed = "not_reviewed"
	ScrubInclude     = "Include"
	ScrubModify      = "Modify"
	ScrubSunset      = "Sunset"
)

// Sync sources
const (
	SourceFolder     = "folder"
	SourceZip        = "zip"
	SourceSharePoint = "sharepoint"
)

// ValidScrubDecisions is the set a scrub write may store.
var ValidScrubDecisions = map[string]bool{
	ScrubNotReviewed: true,
	ScrubInclude:     true,
	ScrubModify:      true,
	ScrubSunset:      true,
}

// ScrubFieldWhitelist is the set of columns a batch scrub edit may touch.
var ScrubFieldWhitelist = map[string]bool{
	"scrub_status":  true,
	"scrub_owner":   true,
	"scrub_notes":   true,
	"scrub_reasons": true,
	"audience":      true,
}

// SalesStage is a canonical sales stage key with its display label.
type SalesStage struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// SalesStages in display order
var SalesStages = []SalesStage{
	{"stage_1_identify", "1. Identify the Customer"},
	{"stage_2_appointment", "2. Ask for Appointment"},
	{"stage_3_prep", "3. Prep for Appointment"},
	{"stage_4_make_sale", "4. Make the Sale"},
	{"stage_5_close", "5. Close the Sale"},
	{"stage_6_referrals", "6. Ask for Referrals"},
}

// SalesStageUntagged filters for containers with no sales stage.
const SalesStageUntagged = "untagged"

// IsSalesStage reports whether key is a canonical sales stage.
func IsSalesStage(key string) bool {
	for _, s := range SalesStages {
		if s.Key == key {
			return true
		}
	}
	return false
}

// Audiences is the canonical audience list. Matching is exact.
var Audiences = []string{
	"Direct Sales",
	"Indirect Sales",
	"Integration",
	"FI",
	"Partner Management",
	"Operations",
	"Compliance",
	"POS",
}

// IsAudience reports whether s is a canonical audience. The empty string
// means unassigned and is accepted.
func IsAudience(s string) bool {
	if s == "" {
		return true
	}
	for _, a := range Audiences {
		if a == s {
			return true
		}
	}
	return false
}

// TrainingType is a training type key with its display label.
type TrainingType struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// Request types

type ScrubRequest struct {
	Decision              string   `json:"decision" validate:"required,oneof=not_reviewed Include Modify Sunset"`
	Owner                 string   `json:"owner"`
	Notes                 *string  `json:"notes,omitempty"`
	Reasons               []string `json:"reasons,omitempty"`
	ResourceCountOverride *int     `json:"resource_count_override,omitempty" validate:"omitempty,gte=0"`
	Audience              *string  `json:"audience,omitempty" validate:"omitempty,audience"`
}

type InvestRequest struct {
	Decision string  `json:"decision" validate:"required"`
	Owner    string  `json:"owner"`
	Effort   *string `json:"effort,omitempty"`
	Notes    *string `json:"notes,omitempty"`
}

type SalesStageRequest struct {
	// nil clears the stage
	Stage *string `json:"stage"`
}

type AudienceBulkRequest struct {
	ContainerKeys []string `json:"container_keys"`

	// empty unassigns
	Audience string `json:"audience" validate:"audience"`
}

// container_key -> column -> value
type ScrubBatchRequest struct {
	Updates map[string]map[string]string `json:"updates"`
}

// Response types

type UpdatedResponse struct {
	Updated int64 `json:"updated"`
}

type ContainerListResponse struct {
	Containers     []Container `json:"containers"`
	TotalResources int         `json:"total_resources"`
	TotalFiles     int         `json:"total_files"`
}

type ContainerDetailResponse struct {
	Container
	// contents_count of the folder container this row sits in, 0 if none
	FolderContentsCount int `json:"folder_contents_count"`
}

type DepartmentsResponse struct {
	Departments []string `json:"departments"`
}

type TrainingTypesResponse struct {
	Department    string         `json:"department,omitempty"`
	TrainingTypes []TrainingType `json:"training_types"`
}

type SalesStagesResponse struct {
	Stages []SalesStage `json:"stages"`
}

type SyncRunsResponse struct {
	Runs []SyncRun `json:"runs"`
}

// Domain types

// Container is one row of the metadata overlay: a file, folder or link
// discovered by a sync, plus the decisions staff have recorded against it.
type Container struct {
	ContainerKey      string  `json:"container_key"`
	DriveItemID       *string `json:"drive_item_id,omitempty"`
	RelativePath      string  `json:"relative_path"`
	Bucket            *string `json:"bucket,omitempty"`
	PrimaryDepartment *string `json:"primary_department,omitempty"`
	SubDepartment     *string `json:"sub_department,omitempty"`
	TrainingType      *string `json:"training_type,omitempty"`
	ContainerType     string  `json:"container_type"`
	DisplayName       *string `json:"display_name,omitempty"`
	WebURL            *string `json:"web_url,omitempty"`

	ResourceCount  int  `json:"resource_count"`
	ValidLinkCount int  `json:"valid_link_count"`
	ContentsCount  int  `json:"contents_count"`
	IsPlaceholder  bool `json:"is_placeholder"`

	ScrubStatus  string  `json:"scrub_status"`
	ScrubNotes   *string `json:"scrub_notes,omitempty"`
	ScrubOwner   *string `json:"scrub_owner,omitempty"`
	ScrubUpdated *string `json:"scrub_updated,omitempty"`
	ScrubReasons *string `json:"scrub_reasons,omitempty"`

	InvestDecision *string `json:"invest_decision,omitempty"`
	InvestOwner    *string `json:"invest_owner,omitempty"`
	InvestEffort   *string `json:"invest_effort,omitempty"`
	InvestNotes    *string `json:"invest_notes,omitempty"`
	InvestUpdated  *string `json:"invest_updated,omitempty"`

	FirstSeen             *string `json:"first_seen,omitempty"`
	LastSeen              *string `json:"last_seen,omitempty"`
	Source                *string `json:"source,omitempty"`
	IsArchived            bool    `json:"is_archived"`
	Audience              *string `json:"audience,omitempty"`
	ApprovedForInvestment bool    `json:"approved_for_investment"`
	SalesStage            *string `json:"sales_stage,omitempty"`
}

// SyncRun records one reconciliation pass.
type SyncRun struct {
	RunID             string  `json:"run_id"`
	StartedAt         string  `json:"started_at"`
	FinishedAt        *string `json:"finished_at,omitempty"`
	Source            string  `json:"source"`
	ActiveTotalBefore int     `json:"active_total_before"`
	AddedCount        int     `json:"added_count"`
	ArchivedCount     int     `json:"archived_count"`
	ActiveTotalAfter  int     `json:"active_total_after"`
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

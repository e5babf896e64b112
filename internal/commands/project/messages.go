package projectcmd

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

const (
	initMessageType    = "ike.project.init"
	extractMessageType = "ike.project.extract"
	devMessageType     = "ike.project.dev"
	buildMessageType   = "ike.project.build"
	deployMessageType  = "ike.project.deploy"
)

func notBlank(code, message string) validation.Rule {
	return validation.By(func(value any) error {
		if s, ok := value.(string); ok && strings.TrimSpace(s) == "" {
			return validation.NewError(code, message)
		}
		return nil
	})
}

// InitCommand scaffolds a new project into Dir. A missing Package is asked
// for interactively.
type InitCommand struct {
	Dir        string `json:"dir"`
	Package    string `json:"package,omitempty"`
	StarterURL string `json:"starter_url,omitempty"`
	StarterDir string `json:"starter_dir,omitempty"`
	PublicDir  string `json:"public_dir,omitempty"`
}

// Type implements command.Message.
func (InitCommand) Type() string { return initMessageType }

func (cmd InitCommand) Validate() error {
	return validation.ValidateStruct(&cmd,
		validation.Field(&cmd.Dir, validation.Required, notBlank("ike.project.init.dir_required", "dir is required")),
		validation.Field(&cmd.StarterURL, validation.When(cmd.StarterURL != "", validation.By(validHTTPURL))),
	)
}

// ExtractCommand writes function descriptors for the module in SourceDir
// into OutputDir. Check lints every written descriptor against the
// descriptor schema.
type ExtractCommand struct {
	SourceDir string `json:"source_dir"`
	OutputDir string `json:"output_dir"`
	Check     bool   `json:"check,omitempty"`
}

// Type implements command.Message.
func (ExtractCommand) Type() string { return extractMessageType }

func (cmd ExtractCommand) Validate() error {
	return validation.ValidateStruct(&cmd,
		validation.Field(&cmd.SourceDir, validation.Required, notBlank("ike.project.extract.source_required", "source dir is required")),
		validation.Field(&cmd.OutputDir, validation.Required, notBlank("ike.project.extract.output_required", "output dir is required")),
	)
}

// DevCommand extracts descriptors, serves the project and watches it for
// changes until the context ends.
type DevCommand struct {
	ProjectDir  string `json:"project_dir"`
	PublicDir   string `json:"public_dir"`
	SourceDir   string `json:"source_dir"`
	APIDir      string `json:"api_dir"`
	SkipExtract bool   `json:"skip_extract,omitempty"`
	Watch       bool   `json:"watch,omitempty"`
}

// Type implements command.Message.
func (DevCommand) Type() string { return devMessageType }

func (cmd DevCommand) Validate() error {
	return validation.ValidateStruct(&cmd,
		validation.Field(&cmd.ProjectDir, validation.Required, notBlank("ike.project.dev.project_required", "project dir is required")),
		validation.Field(&cmd.PublicDir, validation.Required),
		validation.Field(&cmd.SourceDir, validation.When(!cmd.SkipExtract, validation.Required)),
		validation.Field(&cmd.APIDir, validation.When(!cmd.SkipExtract, validation.Required)),
	)
}

// BuildCommand renders the project into the configured output directory.
type BuildCommand struct {
	ProjectDir string `json:"project_dir"`
	PublicDir  string `json:"public_dir"`
	DryRun     bool   `json:"dry_run,omitempty"`
	Diff       bool   `json:"diff,omitempty"`
}

// Type implements command.Message.
func (BuildCommand) Type() string { return buildMessageType }

func (cmd BuildCommand) Validate() error {
	return validation.ValidateStruct(&cmd,
		validation.Field(&cmd.ProjectDir, validation.Required, notBlank("ike.project.build.project_required", "project dir is required")),
		validation.Field(&cmd.PublicDir, validation.Required),
	)
}

// DeployCommand bundles the project and queues it on the build endpoint.
type DeployCommand struct {
	ProjectDir     string `json:"project_dir"`
	APIKey         string `json:"-"`
	KeyringService string `json:"keyring_service,omitempty"`
	KeyringUser    string `json:"keyring_user,omitempty"`
}

// Type implements command.Message.
func (DeployCommand) Type() string { return deployMessageType }

func (cmd DeployCommand) Validate() error {
	return validation.ValidateStruct(&cmd,
		validation.Field(&cmd.ProjectDir, validation.Required, notBlank("ike.project.deploy.project_required", "project dir is required")),
	)
}

func validHTTPURL(value any) error {
	s, _ := value.(string)
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "http://") && !strings.HasPrefix(s, "https://") {
		return validation.NewError("ike.project.url_invalid", "must be an http or https url")
	}
	return nil
}
